package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/runger/selact/internal/provider"
)

var importReplace bool

var exportCmd = &cobra.Command{
	Use:     "export [file]",
	Short:   "Write the local catalog as JSON",
	GroupID: groupSetup,
	Long: `Write the local catalog as a JSON array in the extension's storage format.
Without a file the catalog goes to stdout.

Examples:
  selact export > providers.json
  selact export providers.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:     "import <file>",
	Short:   "Load providers from a JSON export",
	GroupID: groupSetup,
	Long: `Load providers from a JSON array in the extension's storage format.

By default entries are appended unless an entry with the same provider id is
already present. --replace discards the current catalog first. Use - to read
from stdin.

Examples:
  selact import providers.json
  selact import --replace providers.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Replace the catalog instead of merging")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(appOptions{offline: true})
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.engine.Providers(cmd.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []provider.Provider{}
	}

	if len(args) == 0 || args[0] == "-" {
		return writeJSON(cmd.OutOrStdout(), list)
	}
	f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := writeJSON(f, list); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d providers to %s\n", len(list), args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var incoming []provider.Provider
	if err := json.NewDecoder(r).Decode(&incoming); err != nil {
		return fmt.Errorf("invalid catalog export: %w", err)
	}
	for i, p := range incoming {
		if !p.Kind.Valid() {
			return fmt.Errorf("entry %d (%q): %w: %q", i, p.Label, provider.ErrUnknownKind, p.Kind)
		}
	}

	a, err := openApp(appOptions{offline: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	merged := incoming
	added := len(incoming)
	if !importReplace {
		current, err := a.engine.Providers(ctx)
		if err != nil {
			return err
		}
		merged, added = mergeProviders(current, incoming)
	}
	if err := a.engine.SetProviders(ctx, merged); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d providers (%d total)\n", added, len(merged))
	return nil
}

// mergeProviders appends the incoming entries whose id is not already in
// current. Entries without an id are always appended.
func mergeProviders(current, incoming []provider.Provider) ([]provider.Provider, int) {
	out := provider.CloneAll(current)
	added := 0
	for _, p := range incoming {
		if p.HasID() && provider.Index(out, p.ProviderID) >= 0 {
			continue
		}
		out = append(out, p.Clone())
		added++
	}
	return out, added
}
