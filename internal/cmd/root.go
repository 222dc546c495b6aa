package cmd

import (
	"github.com/spf13/cobra"
)

// Command groups shown in help.
const (
	groupCore  = "core"
	groupSetup = "setup"
)

var (
	flagDBPath string
	flagRemote string
	colorMode  string
)

var rootCmd = &cobra.Command{
	Use:   "selact",
	Short: "Act on selected text with configurable providers",
	Long: `selact - act on selected text
  - search the selection with any site, copy it, or open it as a link
  - manage the bubble and panel providers the browser extension shows
  - browse and install providers from the shared catalog`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyColorMode()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteArgs runs the root command with explicit arguments.
func ExecuteArgs(args []string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Catalog Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Database path (overrides storage.db_path)")
	rootCmd.PersistentFlags().StringVar(&flagRemote, "remote", "", "Catalog service URL (overrides remote.base_url)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Color output: auto, always, never")
}
