package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/runger/selact/internal/config"
)

var uninstallBrowser string

var uninstallCmd = &cobra.Command{
	Use:     "uninstall",
	Short:   "Remove the native messaging host registration",
	GroupID: groupSetup,
	Long: `Remove the manifest written by 'selact install'. The local catalog and
configuration are kept.`,
	Args: cobra.NoArgs,
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().StringVar(&uninstallBrowser, "browser", "chrome", "Browser family: chrome or firefox")
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	switch uninstallBrowser {
	case "chrome", "firefox":
	default:
		return fmt.Errorf("unsupported browser: %s (supported: chrome, firefox)", uninstallBrowser)
	}

	out := cmd.OutOrStdout()
	path := config.DefaultPaths().ManifestFile(uninstallBrowser)
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(out, "selact is not registered for %s\n", uninstallBrowser)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove manifest: %w", err)
	}
	if err := unregisterManifest(uninstallBrowser); err != nil {
		return fmt.Errorf("failed to unregister manifest: %w", err)
	}
	fmt.Fprintf(out, "Removed %s\n", path)
	return nil
}
