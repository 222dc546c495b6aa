package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/runger/selact/internal/config"
	"github.com/runger/selact/internal/dispatch"
	"github.com/runger/selact/internal/engine"
	sellog "github.com/runger/selact/internal/log"
	"github.com/runger/selact/internal/remote"
	"github.com/runger/selact/internal/storage"
)

// app bundles what a command needs: config, logger, store, remote client
// and the engine on top of them.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *storage.SQLiteStore
	client *remote.Client
	engine *engine.Engine

	logCloser io.Closer
}

type appOptions struct {
	host        dispatch.Host
	onExpand    dispatch.ExpandFunc
	logFile     string // overrides log.file
	logFallback string // used when log.file is unset
	offline     bool   // never contact the shared catalog
}

func openApp(opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if flagRemote != "" {
		cfg.Remote.BaseURL = flagRemote
	}
	if opts.offline {
		cfg.Remote.BaseURL = ""
	}

	logFile := cfg.Log.File
	if opts.logFile != "" {
		logFile = opts.logFile
	} else if logFile == "" {
		logFile = opts.logFallback
	}
	logger, logCloser, err := sellog.Open(logFile, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath(), storage.WithLogger(logger))
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, store: store, logCloser: logCloser}

	eopts := engine.Options{
		Host:            opts.host,
		OnExpand:        opts.onExpand,
		Logger:          logger,
		ConfirmWindow:   cfg.Catalog.ConfirmWindow(),
		RemoteAddBubble: cfg.Catalog.RemoteAddBubble,
		RemoteAddPanel:  cfg.Catalog.RemoteAddPanel,
		SeedPageSize:    cfg.Remote.SeedPageSize,
	}
	if eopts.Host == nil {
		eopts.Host = dispatch.NewSystemHost()
	}
	if cfg.Remote.BaseURL != "" {
		a.client = remote.NewClient(cfg.Remote.BaseURL, remote.WithTimeout(cfg.Remote.Timeout()))
		eopts.Remote = a.client
	}
	a.engine = engine.New(store, eopts)
	return a, nil
}

// Close waits for background notifications and releases the store.
func (a *app) Close() {
	a.engine.Wait()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
	a.logCloser.Close()
}

func (a *app) requireRemote() error {
	if a.client == nil {
		return fmt.Errorf("%w: set remote.base_url or pass --remote", engine.ErrNoRemote)
	}
	return nil
}
