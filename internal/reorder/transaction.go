package reorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/runger/selact/internal/catalog"
	"github.com/runger/selact/internal/provider"
)

// ErrCommitted is returned when a transaction is used after Commit.
var ErrCommitted = errors.New("reorder transaction already committed")

// CatalogStore is the part of the store a bubble reorder needs.
type CatalogStore interface {
	Providers(ctx context.Context) ([]provider.Provider, error)
	SetProviders(ctx context.Context, providers []provider.Provider) error
}

// GroupStore is the part of the store a group reorder needs.
type GroupStore interface {
	Providers(ctx context.Context) ([]provider.Provider, error)
	GroupOrder(ctx context.Context) ([]string, error)
	SetGroupOrder(ctx context.Context, tags []string) error
}

// BubbleTx reorders the bubble-visible providers. It snapshots the catalog
// at Begin; Commit writes the whole snapshot back with dense orders, so a
// concurrent catalog write between Begin and Commit is overwritten.
type BubbleTx struct {
	store     CatalogStore
	snapshot  []provider.Provider
	list      []provider.Provider
	committed bool
}

// BeginBubble starts a bubble reorder over the current bubble list.
func BeginBubble(ctx context.Context, store CatalogStore) (*BubbleTx, error) {
	providers, err := store.Providers(ctx)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return &BubbleTx{
		store:    store,
		snapshot: providers,
		list:     catalog.BubbleList(providers, catalog.Context{}),
	}, nil
}

// List returns the bubble list in its current (uncommitted) order.
func (tx *BubbleTx) List() []provider.Provider {
	return provider.CloneAll(tx.list)
}

// Move applies one drag. Invalid indices are ignored.
func (tx *BubbleTx) Move(from, to int) {
	tx.list = Move(tx.list, from, to)
}

// Commit assigns every bubble item its position as order and writes the
// full catalog once. It returns the catalog as written.
func (tx *BubbleTx) Commit(ctx context.Context) ([]provider.Provider, error) {
	if tx.committed {
		return nil, ErrCommitted
	}
	updated := ApplyOrder(tx.snapshot, tx.list)
	if err := tx.store.SetProviders(ctx, updated); err != nil {
		return nil, fmt.Errorf("write catalog: %w", err)
	}
	tx.committed = true
	return updated, nil
}

// ApplyOrder returns a copy of full where each item of list has Order set
// to its index in list. Items are matched by provider ID; records without
// an ID fall back to the legacy label+kind+tag key, first unclaimed match
// wins. Items of list that match nothing are skipped.
func ApplyOrder(full, list []provider.Provider) []provider.Provider {
	out := provider.CloneAll(full)
	claimed := make([]bool, len(out))

	for pos, item := range list {
		var idx int
		if item.HasID() {
			idx = provider.Index(out, item.ProviderID)
		} else {
			idx = legacyIndex(out, claimed, item.Key())
		}
		if idx < 0 || claimed[idx] {
			continue
		}
		claimed[idx] = true
		out[idx].Order = provider.IntPtr(pos)
	}
	return out
}

func legacyIndex(list []provider.Provider, claimed []bool, key provider.Key) int {
	for i := range list {
		if !claimed[i] && !list[i].HasID() && list[i].Key() == key {
			return i
		}
	}
	return -1
}

// GroupTx reorders the panel group tags.
type GroupTx struct {
	store     GroupStore
	tags      []string
	hidden    []string // stored tags with no panel group right now
	committed bool
}

// BeginGroup starts a group reorder over the panel groups in the order
// PanelGroups shows them. Stored tags that have no panel group are kept
// behind the visible ones on commit.
func BeginGroup(ctx context.Context, store GroupStore) (*GroupTx, error) {
	providers, err := store.Providers(ctx)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	stored, err := store.GroupOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("read group order: %w", err)
	}
	tx := &GroupTx{store: store, tags: catalog.GroupTags(providers, stored)}
	visible := make(map[string]bool, len(tx.tags))
	for _, tag := range tx.tags {
		visible[tag] = true
	}
	for _, tag := range stored {
		if !visible[tag] {
			visible[tag] = true
			tx.hidden = append(tx.hidden, tag)
		}
	}
	return tx, nil
}

// Tags returns the tags in their current (uncommitted) order.
func (tx *GroupTx) Tags() []string {
	return append([]string(nil), tx.tags...)
}

// Move applies one drag. Invalid indices are ignored.
func (tx *GroupTx) Move(from, to int) {
	tx.tags = Move(tx.tags, from, to)
}

// Commit writes the tag order and returns the visible tags. The provider
// catalog is not touched.
func (tx *GroupTx) Commit(ctx context.Context) ([]string, error) {
	if tx.committed {
		return nil, ErrCommitted
	}
	order := append(tx.Tags(), tx.hidden...)
	if err := tx.store.SetGroupOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("write group order: %w", err)
	}
	tx.committed = true
	return tx.Tags(), nil
}
