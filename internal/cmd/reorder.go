package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/runger/selact/internal/picker"
	"github.com/runger/selact/internal/provider"
)

var reorderCmd = &cobra.Command{
	Use:     "reorder",
	Short:   "Move a bubble entry or a panel group",
	GroupID: groupCore,
	Long: `Move one entry of the bubble list or one group of the panel.

Positions are 0-based. Bubble positions count rows of
'selact list --display bubble' (no other filters); group positions count the
sections of 'selact list --groups'. The moved item lands at <to>.

Examples:
  selact reorder bubble 3 0   # make the fourth bubble entry the first
  selact reorder group 0 2`,
}

var reorderBubbleCmd = &cobra.Command{
	Use:   "bubble <from> <to>",
	Short: "Move a bubble entry",
	Args:  cobra.ExactArgs(2),
	RunE:  runReorderBubble,
}

var reorderGroupCmd = &cobra.Command{
	Use:   "group <from> <to>",
	Short: "Move a panel group",
	Args:  cobra.ExactArgs(2),
	RunE:  runReorderGroup,
}

func init() {
	reorderCmd.AddCommand(reorderBubbleCmd)
	reorderCmd.AddCommand(reorderGroupCmd)
	rootCmd.AddCommand(reorderCmd)
}

func parseMove(args []string) (from, to int, err error) {
	from, err = strconv.Atoi(args[0])
	if err != nil || from < 0 {
		return 0, 0, fmt.Errorf("invalid position %q", args[0])
	}
	to, err = strconv.Atoi(args[1])
	if err != nil || to < 0 {
		return 0, 0, fmt.Errorf("invalid position %q", args[1])
	}
	return from, to, nil
}

func runReorderBubble(cmd *cobra.Command, args []string) error {
	from, to, err := parseMove(args)
	if err != nil {
		return err
	}
	a, err := openApp(appOptions{offline: true})
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.engine.ReorderBubble(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, p := range list {
		fmt.Fprintf(out, "%2d  %s\n", i, picker.DisplayLabel(p.Label, 60))
	}
	return nil
}

func runReorderGroup(cmd *cobra.Command, args []string) error {
	from, to, err := parseMove(args)
	if err != nil {
		return err
	}
	a, err := openApp(appOptions{offline: true})
	if err != nil {
		return err
	}
	defer a.Close()

	tags, err := a.engine.ReorderGroup(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, tag := range tags {
		fmt.Fprintf(out, "%2d  %s\n", i, provider.DisplayTag(tag))
	}
	return nil
}
