package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runger/selact/internal/config"
	"github.com/runger/selact/internal/dispatch"
	"github.com/runger/selact/internal/nativehost"
)

var serveLogFile string

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run as the browser extension's native messaging host",
	GroupID: groupSetup,
	Long: `Run the native messaging host on stdin and stdout.

The browser starts this process itself once the manifest written by
'selact install' is in place. Stdout carries the protocol, so logs go to the
configured log file, or to the data directory's logs/host.log.`,
	Args: cobra.ArbitraryArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Log file (default: data dir logs/host.log)")
	rootCmd.AddCommand(serveCmd)
}

// runServe only logs positional arguments: browsers pass the extension
// origin (Chrome, plus --parent-window on Windows) or the manifest path and
// extension id (Firefox).
func runServe(cmd *cobra.Command, args []string) error {
	// stdout is the native messaging channel.
	dispatch.SilenceBrowserLauncher()
	tr := nativehost.NewTransport(cmd.InOrStdin(), cmd.OutOrStdout())

	a, err := openApp(appOptions{
		onExpand:    tr.Expand,
		logFile:     serveLogFile,
		logFallback: config.DefaultPaths().LogFile(),
	})
	if err != nil {
		return err
	}
	defer a.Close()
	if len(args) > 0 {
		a.logger.Info("started by browser", "caller", args[0])
	}

	srv, err := nativehost.NewServer(&nativehost.ServerConfig{
		Transport: tr,
		Engine:    a.engine,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}

	// Writes after the browser exits return EPIPE instead of killing us.
	signal.Ignore(syscall.SIGPIPE)
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return srv.Serve(ctx)
}

// IsBrowserLaunch reports whether args look like a native messaging launch:
// Chrome passes the calling origin, Firefox the manifest path and the
// extension id.
func IsBrowserLaunch(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch {
	case strings.HasPrefix(args[0], "chrome-extension://"):
		return true
	case len(args) == 2 && isManifestPath(args[0]):
		return true
	}
	return false
}

func isManifestPath(p string) bool {
	if !strings.HasSuffix(p, ".json") {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
