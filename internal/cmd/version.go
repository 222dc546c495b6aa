package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/runger/selact/internal/cmd.Version=..." at release time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print version information",
	GroupID: groupSetup,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := buildInfo{
			Version:  Version,
			Commit:   GitCommit,
			Built:    BuildDate,
			Platform: runtime.GOOS + "/" + runtime.GOARCH,
			Host:     HostName,
		}
		out := cmd.OutOrStdout()
		if versionJSON {
			return writeJSON(out, info)
		}
		fmt.Fprintf(out, "selact %s (%s)\n", info.Version, info.Platform)
		fmt.Fprintf(out, "  commit: %s\n  built:  %s\n  host:   %s\n", info.Commit, info.Built, info.Host)
		return nil
	},
}

type buildInfo struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Built    string `json:"built"`
	Platform string `json:"platform"`
	Host     string `json:"host"`
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print as JSON")
	rootCmd.AddCommand(versionCmd)
}
