package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultCheckpointInterval is how often a long-lived store folds the WAL
// back into the database file.
const DefaultCheckpointInterval = 5 * time.Minute

// SQLiteStore implements Store on a single SQLite file. It is opened in WAL
// mode so the CLI can read while a native host process holds it open.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	stopCh    chan struct{}
	stoppedCh chan struct{}
	closeOnce sync.Once
	closeErr  error
}

var _ Store = (*SQLiteStore)(nil)

// Option configures a SQLiteStore.
type Option func(*storeOptions)

type storeOptions struct {
	logger     *slog.Logger
	checkpoint time.Duration
}

// WithLogger sets the logger for background maintenance failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *storeOptions) { o.logger = l }
}

// WithCheckpointInterval overrides DefaultCheckpointInterval. Zero or
// negative disables periodic checkpoints; Close still checkpoints.
func WithCheckpointInterval(d time.Duration) Option {
	return func(o *storeOptions) { o.checkpoint = d }
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// brings its schema up to date.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("database path is required")
	}
	o := storeOptions{checkpoint: DefaultCheckpointInterval}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// modernc.org/sqlite uses _pragma=name(value) syntax
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every document write is a single statement, one connection is enough.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: o.logger}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if o.checkpoint > 0 {
		s.stopCh = make(chan struct{})
		s.stoppedCh = make(chan struct{})
		go s.checkpointLoop(o.checkpoint)
	}
	return s, nil
}

// Close stops background work, checkpoints the WAL and closes the database.
// It is safe to call more than once.
func (s *SQLiteStore) Close() error {
	s.closeOnce.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			<-s.stoppedCh
		}
		if err := s.checkpoint(); err != nil {
			s.logger.Warn("final WAL checkpoint failed", "error", err)
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// DB returns the underlying connection for diagnostics and tests.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) checkpoint() error {
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

func (s *SQLiteStore) checkpointLoop(every time.Duration) {
	defer close(s.stoppedCh)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.checkpoint(); err != nil {
				s.logger.Warn("WAL checkpoint failed", "error", err)
			}
		}
	}
}

// migrations are applied in order; each runs once per database.
var migrations = []struct {
	version int
	sql     string
}{
	{version: 1, sql: migrationV1},
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	current, err := s.SchemaVersion(ctx)
	if err != nil && !isTableNotFoundError(err) {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("migration v%d failed: %w", m.version, err)
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO schema_meta (version, applied_at_unix_ms) VALUES (?, ?)`,
			m.version, time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.version, err)
		}
		s.logger.Debug("applied migration", "version", m.version)
	}
	return nil
}

// SchemaVersion returns the highest applied migration, 0 for a new database.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_meta`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}

func isTableNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such table") || strings.Contains(msg, "does not exist")
}

// migrationV1 creates the document table. Each logical key holds one JSON
// document; revision counts writes to that key.
const migrationV1 = `
CREATE TABLE IF NOT EXISTS schema_meta (
  version INTEGER PRIMARY KEY,
  applied_at_unix_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  revision INTEGER NOT NULL DEFAULT 1,
  updated_at_unix_ms INTEGER NOT NULL
);
`
