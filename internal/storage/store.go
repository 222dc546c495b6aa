// Package storage provides SQLite-based persistence for the provider catalog,
// the panel group order, and the bubble offset.
package storage

import (
	"context"
	"errors"

	"github.com/runger/selact/internal/provider"
)

// Logical keys of the persisted documents.
const (
	KeyProviders    = "ActionProviderStore"
	KeyGroupOrder   = "GroupOrderStore"
	KeyBubbleOffset = "BubbleOffsetStore"
)

// ErrCorrupt is returned when a stored document cannot be decoded at all.
// Individual missing fields are not corruption; they decode to zero values.
var ErrCorrupt = errors.New("stored document is corrupt")

// Offset is the pixel offset applied to the bubble relative to the anchor.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DefaultBubbleOffset is returned when no offset has been stored.
var DefaultBubbleOffset = Offset{X: 20, Y: 20}

// Store is the single source of truth for durable catalog state.
//
// Every setter replaces the whole document for its key in one write. There is
// no optimistic concurrency: the last writer wins.
type Store interface {
	// Provider catalog, default empty
	Providers(ctx context.Context) ([]provider.Provider, error)
	SetProviders(ctx context.Context, providers []provider.Provider) error

	// Panel group order, default empty
	GroupOrder(ctx context.Context) ([]string, error)
	SetGroupOrder(ctx context.Context, tags []string) error

	// Bubble offset, default {20, 20}
	BubbleOffset(ctx context.Context) (Offset, error)
	SetBubbleOffset(ctx context.Context, off Offset) error

	// Revision returns how many times key has been written (0 if never).
	Revision(ctx context.Context, key string) (int64, error)

	// Lifecycle
	Close() error
}
