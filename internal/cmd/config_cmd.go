package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/selact/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config [key] [value]",
	Short:   "Get or set configuration values",
	GroupID: groupSetup,
	Long: `Get or set selact configuration values.

Without arguments, lists all configuration keys.
With one argument, shows the value of that key.
With two arguments, sets the key to the value.

Configuration is stored in ~/.config/selact/config.yaml (XDG compliant).

Keys are in the format: section.key
Sections: remote, catalog, storage, log

Examples:
  selact config                              # List all keys
  selact config remote.page_size             # Get remote.page_size
  selact config catalog.remote_add_panel false
  selact config remote.base_url http://localhost:3000`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	cfg, err := config.LoadFromFile(paths.ConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	switch len(args) {
	case 0:
		listConfig(out, cfg, paths)
		return nil
	case 1:
		return getConfig(out, cfg, args[0])
	default:
		return setConfig(out, cfg, paths, args[0], args[1])
	}
}

// listConfig prints every key under a [section] header. Keys that cannot be
// read are reported once at the end rather than aborting the listing.
func listConfig(w io.Writer, cfg *config.Config, paths *config.Paths) {
	fmt.Fprintf(w, "%s# %s%s\n", colorDim, paths.ConfigFile(), colorReset)

	var unreadable []string
	last := ""
	for _, key := range config.ListKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			unreadable = append(unreadable, key)
			continue
		}
		if section, _, _ := strings.Cut(key, "."); section != last {
			last = section
			fmt.Fprintf(w, "\n%s[%s]%s\n", colorBold, section, colorReset)
		}
		fmt.Fprintf(w, "%s%s%s = %s\n", colorCyan, key, colorReset, showValue(value))
	}

	if len(unreadable) > 0 {
		fmt.Fprintf(w, "\n%swarning:%s could not read %s\n", colorYellow, colorReset, strings.Join(unreadable, ", "))
	}
}

func showValue(v string) string {
	if v == "" {
		return colorDim + "(not set)" + colorReset
	}
	return v
}

func getConfig(w io.Writer, cfg *config.Config, key string) error {
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, showValue(value))
	return nil
}

// setConfig validates the whole config before saving so a bad value never
// reaches disk.
func setConfig(w io.Writer, cfg *config.Config, paths *config.Paths, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := cfg.SaveToFile(paths.ConfigFile()); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s%s%s = %s\n", colorCyan, key, colorReset, value)
	return nil
}
