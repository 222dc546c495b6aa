package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:     "publish <provider-id>",
	Short:   "Share a provider with the shared catalog",
	GroupID: groupCore,
	Long: `Submit a local search provider to the shared catalog.

The homepage must be an absolute URL and the link must contain
{selectedText}. On success the local entry takes the id the service assigns,
so later removals are reported against it.

Examples:
  selact publish -- -4`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	id, err := parseProviderID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireRemote(); err != nil {
		return err
	}
	p, err := a.engine.Publish(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%sPublished%s %s as %d\n", colorGreen, colorReset, p.Label, p.ProviderID)
	return nil
}
