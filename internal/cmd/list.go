package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/runger/selact/internal/catalog"
	"github.com/runger/selact/internal/picker"
	"github.com/runger/selact/internal/provider"
)

var (
	listTerm    string
	listKind    string
	listTag     string
	listDisplay string
	listJSON    bool
	listGroups  bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the local catalog",
	GroupID: groupCore,
	Long: `List the providers in the local catalog in stored order.

Filters combine: --term matches label or homepage case-insensitively,
--kind and --tag match exactly (untagged entries are "other"), --display
keeps only bubble or panel entries. With --display bubble the entries are
printed in bubble order, the order 'selact reorder bubble' counts in.

Examples:
  selact list
  selact list --display bubble
  selact list --term wiki --json
  selact list --groups          # panel sections in group order`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listTerm, "term", "", "Match label or homepage")
	listCmd.Flags().StringVar(&listKind, "kind", catalog.All, "Provider kind: search, menu, copy, or all")
	listCmd.Flags().StringVar(&listTag, "tag", catalog.All, "Tag (other for untagged) or all")
	listCmd.Flags().StringVar(&listDisplay, "display", catalog.DisplayAll, "Surface: all, bubble, or panel")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	listCmd.Flags().BoolVar(&listGroups, "groups", false, "Show panel groups instead of the flat list")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	switch listDisplay {
	case catalog.DisplayAll, catalog.DisplayBubble, catalog.DisplayPanel:
	default:
		return fmt.Errorf("invalid --display %q (use all, bubble, or panel)", listDisplay)
	}

	a, err := openApp(appOptions{offline: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if listGroups {
		groups, err := a.engine.PanelGroups(ctx)
		if err != nil {
			return err
		}
		if listJSON {
			return writeJSON(out, groups)
		}
		renderGroups(out, groups)
		return nil
	}

	var all []provider.Provider
	if listDisplay == catalog.DisplayBubble {
		all, err = a.engine.BubbleList(ctx)
	} else {
		all, err = a.engine.Providers(ctx)
	}
	if err != nil {
		return err
	}
	filter := catalog.Filter{Term: listTerm, Kind: listKind, Tag: listTag, Display: listDisplay}
	matched, _ := filter.Apply(all)

	if listJSON {
		if matched == nil {
			matched = []provider.Provider{}
		}
		return writeJSON(out, matched)
	}
	if len(matched) == 0 {
		fmt.Fprintln(out, "No providers found.")
		return nil
	}
	renderProviders(out, matched, terminalWidth())
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	idStyle     = lipgloss.NewStyle().Width(14).Align(lipgloss.Right)
	kindStyle   = lipgloss.NewStyle().Width(7)
	tagStyle    = lipgloss.NewStyle().Width(12)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// renderProviders prints one row per provider: id, kind, tag, surfaces,
// label. The label column takes whatever width is left.
func renderProviders(w io.Writer, list []provider.Provider, width int) {
	labelWidth := width - 14 - 7 - 12 - 8 - 4
	if labelWidth < 10 {
		labelWidth = 10
	}

	fmt.Fprintln(w, headerStyle.Render(strings.Join([]string{
		idStyle.Render("ID"), kindStyle.Render("KIND"), tagStyle.Render("TAG"), "SURFACES", "LABEL",
	}, " ")))
	for _, p := range list {
		fmt.Fprintln(w, strings.Join([]string{
			idStyle.Render(formatID(p.ProviderID)),
			kindStyle.Render(string(p.Kind)),
			tagStyle.Render(picker.DisplayLabel(provider.DisplayTag(p.Tag), 12)),
			surfaces(p),
			picker.DisplayLabel(p.Label, labelWidth),
		}, " "))
	}
}

func renderGroups(w io.Writer, groups []catalog.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No panel providers.")
		return
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, headerStyle.Render(picker.DisplayLabel(g.Display, 40)))
		for _, p := range g.Providers {
			fmt.Fprintf(w, "  %s %s\n", idStyle.Render(formatID(p.ProviderID)), picker.DisplayLabel(p.Label, 60))
		}
	}
}

func formatID(id int64) string {
	if id == 0 {
		return mutedStyle.Render("-")
	}
	return fmt.Sprintf("%d", id)
}

func surfaces(p provider.Provider) string {
	b, s := "-", "-"
	if p.Bubble {
		b = "B"
	}
	if p.Panel {
		s = "P"
	}
	return fmt.Sprintf("%-8s", b+s)
}
