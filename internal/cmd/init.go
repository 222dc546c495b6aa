package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runger/selact/internal/storage"
)

var initOffline bool

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Create the local catalog",
	GroupID: groupSetup,
	Long: `Create the local provider catalog if it is empty.

The catalog starts with the built-in Link and Menu providers followed by the
shared catalog's starting set. If the shared catalog cannot be reached the
built-ins are still written. An existing catalog is never touched.

Examples:
  selact init
  selact init --offline   # built-ins only`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initOffline, "offline", false, "Do not contact the shared catalog")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := openApp(appOptions{offline: initOffline})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rev, err := a.store.Revision(ctx, storage.KeyBubbleOffset)
	if err != nil {
		return err
	}
	if rev == 0 {
		off := storage.Offset{X: a.cfg.Catalog.BubbleOffsetX, Y: a.cfg.Catalog.BubbleOffsetY}
		if err := a.engine.SetBubbleOffset(ctx, off); err != nil {
			return err
		}
	}

	n, err := a.engine.Seed(ctx)
	if n == 0 {
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Catalog already initialized")
		return nil
	}

	fmt.Fprintf(out, "%sInitialized catalog with %d providers%s\n", colorGreen, n, colorReset)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%sWarning:%s %v\n", colorYellow, colorReset, err)
	}
	return nil
}
