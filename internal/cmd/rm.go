package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm <provider-id>...",
	Aliases: []string{"remove"},
	Short:   "Remove providers from the local catalog",
	GroupID: groupCore,
	Long: `Remove providers from the local catalog.

Entries installed from the shared catalog are reported as obsolete to the
service so its popularity ranking stays current.

Examples:
  selact rm 42
  selact rm -- -3 17`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseProviderID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	a, err := openApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	for _, id := range ids {
		if err := a.engine.Remove(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d\n", id)
	}
	return nil
}
