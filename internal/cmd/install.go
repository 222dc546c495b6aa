package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/runger/selact/internal/config"
)

// HostName is the native messaging host name the extension connects to.
const HostName = "dev.selact.host"

var (
	installBrowser     string
	installExtensionID string
	installExecutable  string
)

var installCmd = &cobra.Command{
	Use:     "install",
	Short:   "Register the native messaging host with a browser",
	GroupID: groupSetup,
	Long: `Write the native messaging manifest that lets the selact extension start
this binary as its host.

Chrome and Chromium-based browsers identify the extension by id
(allowed_origins); Firefox by its add-on id (allowed_extensions). On Windows
the manifest is also registered under HKEY_CURRENT_USER.

Examples:
  selact install --extension-id abcdefghijklmnopabcdefghijklmnop
  selact install --browser firefox --extension-id selact@selact.dev`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installBrowser, "browser", "chrome", "Browser family: chrome or firefox")
	installCmd.Flags().StringVar(&installExtensionID, "extension-id", "", "Extension id allowed to connect")
	installCmd.Flags().StringVar(&installExecutable, "executable", "", "Host binary (default: this executable)")
	_ = installCmd.MarkFlagRequired("extension-id")
	rootCmd.AddCommand(installCmd)
}

// manifest is the native messaging host manifest. Exactly one of
// AllowedOrigins and AllowedExtensions is set.
type manifest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Path              string   `json:"path"`
	Type              string   `json:"type"`
	AllowedOrigins    []string `json:"allowed_origins,omitempty"`
	AllowedExtensions []string `json:"allowed_extensions,omitempty"`
}

func newManifest(browser, extensionID, exe string) (manifest, error) {
	m := manifest{
		Name:        HostName,
		Description: "selact selection action host",
		Path:        exe,
		Type:        "stdio",
	}
	switch browser {
	case "chrome":
		m.AllowedOrigins = []string{"chrome-extension://" + extensionID + "/"}
	case "firefox":
		m.AllowedExtensions = []string{extensionID}
	default:
		return manifest{}, fmt.Errorf("unsupported browser: %s (supported: chrome, firefox)", browser)
	}
	return m, nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	if installExtensionID == "" {
		return fmt.Errorf("--extension-id is required")
	}

	exe := installExecutable
	if exe == "" {
		var err error
		exe, err = hostExecutable()
		if err != nil {
			return err
		}
	}

	m, err := newManifest(installBrowser, installExtensionID, exe)
	if err != nil {
		return err
	}
	content, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	content = append(content, '\n')

	out := cmd.OutOrStdout()
	path := config.DefaultPaths().ManifestFile(installBrowser)
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, content) {
		fmt.Fprintf(out, "selact is already registered for %s\n", installBrowser)
		fmt.Fprintf(out, "  Manifest: %s\n", path)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := registerManifest(installBrowser, path); err != nil {
		return fmt.Errorf("failed to register manifest: %w", err)
	}

	fmt.Fprintf(out, "%sInstalled successfully!%s\n", colorGreen, colorReset)
	fmt.Fprintf(out, "  Manifest: %s\n", path)
	fmt.Fprintf(out, "  Host:     %s\n", exe)
	fmt.Fprintf(out, "\nReload the extension to connect.\n")
	return nil
}

// hostExecutable returns the absolute, symlink-free path of this binary.
// Browsers require an absolute path in the manifest.
func hostExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Abs(exe)
}
