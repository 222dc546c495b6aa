package cmd

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/runger/selact/internal/dispatch"
	"github.com/runger/selact/internal/provider"
)

var (
	runSource string
	runDryRun bool
)

var runCmd = &cobra.Command{
	Use:     "run <provider-id> <text>",
	Short:   "Run a provider on some text",
	GroupID: groupCore,
	Long: `Run a provider as if <text> were selected on the page given by --source.

Search providers open the substituted link in the default browser, copy
providers write the text to the clipboard (OSC 52 when no clipboard is
available), and menu providers report that the panel would open.

Examples:
  selact run -- -1 "https://example.com"   # local ids are negative
  selact run 42 "hello world"
  selact run 42 "hello world" --dry-run   # print the URL, open nothing`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSource, "source", "", "Address of the page the text came from")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Record the action instead of performing it")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	id, err := parseProviderID(args[0])
	if err != nil {
		return err
	}

	opts := appOptions{offline: true}
	if runDryRun {
		opts.host = &dispatch.RecordingHost{}
	}
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	a.engine.OnSelectionChange(args[1], runSource)
	res, err := a.engine.Dispatch(cmd.Context(), id, uuid.NewString())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	prefix := ""
	if runDryRun {
		prefix = "(dry run) "
	}
	switch res.Kind {
	case provider.KindSearch:
		fmt.Fprintf(out, "%sOpened %s\n", prefix, res.URL)
	case provider.KindCopy:
		fmt.Fprintf(out, "%sCopied %q\n", prefix, res.Copied)
	case provider.KindMenu:
		fmt.Fprintln(out, "Menu provider: the panel opens in the extension")
	}
	return nil
}

// parseProviderID parses a local (negative) or remote (positive) id.
func parseProviderID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid provider id %q", s)
	}
	return id, nil
}
