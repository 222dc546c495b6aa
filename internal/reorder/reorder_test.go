package reorder

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/selact/internal/catalog"
	"github.com/runger/selact/internal/provider"
	"github.com/runger/selact/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func labels(list []provider.Provider) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Label
	}
	return out
}

func TestMove(t *testing.T) {
	t.Parallel()

	in := []string{"a", "b", "c", "d"}
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"forward", 0, 2, []string{"b", "c", "a", "d"}},
		{"backward", 3, 0, []string{"d", "a", "b", "c"}},
		{"to end", 0, 3, []string{"b", "c", "d", "a"}},
		{"adjacent", 1, 2, []string{"a", "c", "b", "d"}},
		{"same index", 2, 2, in},
		{"from out of range", 4, 0, in},
		{"to out of range", 0, 4, in},
		{"negative", -1, 0, in},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Move(in, tt.from, tt.to)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, in, "input is never mutated")
	assert.Empty(t, Move([]string(nil), 0, 0))
}

func TestMove_PreservesElements(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		n := r.Intn(8) + 1
		list := make([]int, n)
		for j := range list {
			list[j] = j
		}
		from, to := r.Intn(n+2)-1, r.Intn(n+2)-1
		got := Move(list, from, to)

		require.Len(t, got, n)
		assert.ElementsMatch(t, list, got)
		if from >= 0 && from < n && to >= 0 && to < n {
			assert.Equal(t, from, got[to])
		}
	}
}

func TestApplyOrder(t *testing.T) {
	t.Parallel()

	full := []provider.Provider{
		{ProviderID: 1, Label: "A", Bubble: true, Kind: provider.KindCopy},
		{Label: "Legacy", Bubble: true, Kind: provider.KindCopy, Tag: "general"},
		{ProviderID: 2, Label: "Panel only", Panel: true, Kind: provider.KindCopy, Order: provider.IntPtr(9)},
		{ProviderID: 3, Label: "B", Bubble: true, Kind: provider.KindCopy},
	}
	list := []provider.Provider{full[3], full[1], full[0]}

	out := ApplyOrder(full, list)

	require.Len(t, out, 4)
	assert.Equal(t, 2, *out[0].Order)
	assert.Equal(t, 1, *out[1].Order, "legacy record matched by label+kind+tag")
	assert.Equal(t, 9, *out[2].Order, "items outside the list keep their order")
	assert.Equal(t, 0, *out[3].Order)
	assert.Nil(t, full[0].Order, "input is not mutated")
}

func TestApplyOrder_LegacyDuplicates(t *testing.T) {
	t.Parallel()

	full := []provider.Provider{
		{Label: "Same", Kind: provider.KindCopy},
		{Label: "Same", Kind: provider.KindCopy},
	}
	out := ApplyOrder(full, []provider.Provider{full[1], full[0]})

	assert.Equal(t, 0, *out[0].Order)
	assert.Equal(t, 1, *out[1].Order)
}

func TestBubbleTx_RoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SetProviders(ctx, []provider.Provider{
		{ProviderID: 1, Label: "Bing", Bubble: true, Order: provider.IntPtr(1), Kind: provider.KindCopy},
		{ProviderID: 2, Label: "Google", Bubble: true, Order: provider.IntPtr(0), Kind: provider.KindCopy},
		{ProviderID: 3, Label: "Wiki", Bubble: true, Kind: provider.KindCopy},
		{ProviderID: 4, Label: "Hidden", Panel: true, Kind: provider.KindCopy},
	}))

	tx, err := BeginBubble(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []string{"Google", "Bing", "Wiki"}, labels(tx.List()))

	tx.Move(2, 0)
	want := labels(tx.List())
	assert.Equal(t, []string{"Wiki", "Google", "Bing"}, want)

	_, err = tx.Commit(ctx)
	require.NoError(t, err)

	stored, err := store.Providers(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 4)

	bubble := catalog.BubbleList(stored, catalog.Context{})
	assert.Equal(t, want, labels(bubble))
	for i, p := range bubble {
		require.NotNil(t, p.Order)
		assert.Equal(t, i, *p.Order)
	}
	assert.Nil(t, stored[3].Order)

	_, err = tx.Commit(ctx)
	assert.ErrorIs(t, err, ErrCommitted)
}

func TestBubbleTx_RandomRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	r := rand.New(rand.NewSource(11))

	var seed []provider.Provider
	for i := 0; i < 6; i++ {
		p := provider.Provider{ProviderID: int64(i + 1), Label: string(rune('A' + i)), Bubble: true, Kind: provider.KindCopy}
		if r.Intn(2) == 0 {
			p.Order = provider.IntPtr(r.Intn(4))
		}
		seed = append(seed, p)
	}
	require.NoError(t, store.SetProviders(ctx, seed))

	for round := 0; round < 10; round++ {
		tx, err := BeginBubble(ctx, store)
		require.NoError(t, err)
		tx.Move(r.Intn(6), r.Intn(6))
		want := labels(tx.List())
		_, err = tx.Commit(ctx)
		require.NoError(t, err)

		stored, err := store.Providers(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, labels(catalog.BubbleList(stored, catalog.Context{})))
	}
}

type failingStore struct {
	providers []provider.Provider
	err       error
}

func (s *failingStore) Providers(context.Context) ([]provider.Provider, error) {
	return s.providers, nil
}

func (s *failingStore) SetProviders(context.Context, []provider.Provider) error { return s.err }
func (s *failingStore) GroupOrder(context.Context) ([]string, error)          { return nil, nil }
func (s *failingStore) SetGroupOrder(context.Context, []string) error         { return s.err }

func TestBubbleTx_CommitFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	store := &failingStore{
		providers: []provider.Provider{{ProviderID: 1, Label: "A", Bubble: true, Kind: provider.KindCopy}},
		err:       boom,
	}

	tx, err := BeginBubble(context.Background(), store)
	require.NoError(t, err)
	_, err = tx.Commit(context.Background())
	require.ErrorIs(t, err, boom)

	// A failed commit can be retried.
	store.err = nil
	_, err = tx.Commit(context.Background())
	require.NoError(t, err)
}

func TestGroupTx_RoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SetProviders(ctx, []provider.Provider{
		{ProviderID: 1, Label: "A", Tag: "translation", Panel: true, Kind: provider.KindCopy},
		{ProviderID: 2, Label: "B", Tag: "general", Panel: true, Kind: provider.KindCopy},
		{ProviderID: 3, Label: "C", Panel: true, Kind: provider.KindCopy},
	}))
	require.NoError(t, store.SetGroupOrder(ctx, []string{"general", "video"}))
	before, err := store.Revision(ctx, storage.KeyProviders)
	require.NoError(t, err)

	tx, err := BeginGroup(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []string{"general", "other", "translation"}, tx.Tags())

	tx.Move(2, 0)
	got, err := tx.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"translation", "general", "other"}, got)

	stored, err := store.GroupOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"translation", "general", "other", "video"}, stored, "unused stored tags are kept last")

	after, err := store.Revision(ctx, storage.KeyProviders)
	require.NoError(t, err)
	assert.Equal(t, before, after, "group commit does not touch the catalog")

	stored2, err := store.Providers(ctx)
	require.NoError(t, err)
	groups := catalog.PanelGroups(stored2, stored, catalog.Context{})
	require.Len(t, groups, 3)
	assert.Equal(t, "translation", groups[0].Tag)
	assert.Equal(t, "general", groups[1].Tag)
	assert.Equal(t, "other", groups[2].Tag)
}
