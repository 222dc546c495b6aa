package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/runger/selact/internal/provider"
)

// Providers returns the persisted catalog, or an empty list if none is stored.
func (s *SQLiteStore) Providers(ctx context.Context) ([]provider.Provider, error) {
	var list []provider.Provider
	found, err := s.getDocument(ctx, KeyProviders, &list)
	if err != nil {
		return nil, err
	}
	if !found || list == nil {
		return []provider.Provider{}, nil
	}
	return list, nil
}

// SetProviders replaces the entire catalog in one write.
func (s *SQLiteStore) SetProviders(ctx context.Context, providers []provider.Provider) error {
	if providers == nil {
		providers = []provider.Provider{}
	}
	return s.putDocument(ctx, KeyProviders, providers)
}

// GroupOrder returns the persisted panel group order, or an empty list.
func (s *SQLiteStore) GroupOrder(ctx context.Context) ([]string, error) {
	var tags []string
	found, err := s.getDocument(ctx, KeyGroupOrder, &tags)
	if err != nil {
		return nil, err
	}
	if !found || tags == nil {
		return []string{}, nil
	}
	return tags, nil
}

// SetGroupOrder replaces the panel group order in one write.
func (s *SQLiteStore) SetGroupOrder(ctx context.Context, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	return s.putDocument(ctx, KeyGroupOrder, tags)
}

// BubbleOffset returns the persisted bubble offset, or DefaultBubbleOffset.
func (s *SQLiteStore) BubbleOffset(ctx context.Context) (Offset, error) {
	off := DefaultBubbleOffset
	if _, err := s.getDocument(ctx, KeyBubbleOffset, &off); err != nil {
		return DefaultBubbleOffset, err
	}
	return off, nil
}

// SetBubbleOffset replaces the bubble offset.
func (s *SQLiteStore) SetBubbleOffset(ctx context.Context, off Offset) error {
	return s.putDocument(ctx, KeyBubbleOffset, off)
}

// Revision returns the write count of key, 0 if it was never written.
func (s *SQLiteStore) Revision(ctx context.Context, key string) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM documents WHERE key = ?`, key).Scan(&rev)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read revision of %s: %w", key, err)
	}
	return rev, nil
}

// getDocument decodes the document stored under key into dst.
// It reports false without error when the key has never been written.
func (s *SQLiteStore) getDocument(ctx context.Context, key string, dst any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM documents WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

// putDocument replaces the document under key with a single upsert, so
// readers never observe a partially written value.
func (s *SQLiteStore) putDocument(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (key, value, revision, updated_at_unix_ms)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
		  value = excluded.value,
		  revision = documents.revision + 1,
		  updated_at_unix_ms = excluded.updated_at_unix_ms
	`, key, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
