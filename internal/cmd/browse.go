package cmd

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/selact/internal/picker"
)

var (
	browseKeyword string
	browseTag     string
)

var browseCmd = &cobra.Command{
	Use:     "browse",
	Short:   "Browse the shared catalog and install providers",
	GroupID: groupCore,
	Long: `Open an interactive browser over the shared provider catalog.

Type to search (results refresh after a short pause), Tab switches between
the keyword and tag fields, Enter installs the highlighted entry, Esc quits.
Scrolling to the end of the list loads the next page.

Examples:
  selact browse
  selact browse --tag translation`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseKeyword, "keyword", "", "Initial search keyword")
	browseCmd.Flags().StringVar(&browseTag, "tag", "", "Initial tag filter")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	a, err := openApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireRemote(); err != nil {
		return err
	}

	model := picker.NewModel(a.client, a.engine, picker.Options{
		PageSize: a.cfg.Remote.PageSize,
		Debounce: a.cfg.Remote.Debounce(),
		Keyword:  browseKeyword,
		Tag:      browseTag,
	})

	in, out, closeTTY := openTerminal()
	defer closeTTY()

	// Styles are package-level in picker; SetColorProfile updates the default
	// renderer they already point at.
	if f, ok := out.(*os.File); ok {
		lipgloss.SetColorProfile(termenv.NewOutput(f).ColorProfile())
	}

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithContext(cmd.Context()),
	)
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("browser UI: %w", err)
	}

	m, ok := final.(picker.Model)
	if !ok {
		return fmt.Errorf("unexpected model type %T", final)
	}
	added := m.Added()
	w := cmd.OutOrStdout()
	if len(added) == 0 {
		fmt.Fprintln(w, "No providers added.")
		return nil
	}
	for _, prov := range added {
		fmt.Fprintf(w, "%sAdded%s %d %s\n", colorGreen, colorReset, prov.ProviderID, picker.DisplayLabel(prov.Label, 60))
	}
	return nil
}

// openTerminal returns the controlling terminal when there is one, so the
// UI still works with stdout redirected. It falls back to stdin and stdout.
func openTerminal() (io.Reader, io.Writer, func()) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return os.Stdin, os.Stdout, func() {}
	}
	return tty, tty, func() { tty.Close() }
}
