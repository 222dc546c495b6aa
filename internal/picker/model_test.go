package picker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/selact/internal/provider"
	"github.com/runger/selact/internal/remote"
	"github.com/runger/selact/internal/remote/remotetest"
)

// --- Mocks ---

type mockSource struct {
	mu        sync.Mutex
	providers []remote.Provider
	err       error
	failPage  int // When > 0, only this page fails with err
	queries   []remote.Query
}

func (s *mockSource) Search(ctx context.Context, q remote.Query) (remote.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)

	if err := ctx.Err(); err != nil {
		return remote.Page{}, err
	}
	if s.err != nil && (s.failPage == 0 || s.failPage == q.Page) {
		return remote.Page{}, s.err
	}

	var matched []remote.Provider
	for _, p := range s.providers {
		if q.Keyword != "" && !strings.Contains(strings.ToLower(p.Label), strings.ToLower(q.Keyword)) {
			continue
		}
		if q.Tag != "" && p.Tag != q.Tag {
			continue
		}
		matched = append(matched, p)
	}
	start := (q.Page - 1) * q.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return remote.Page{Providers: matched[start:end], HasMore: end < len(matched)}, nil
}

func (s *mockSource) pagesRequested() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.queries))
	for i, q := range s.queries {
		out[i] = q.Page
	}
	return out
}

type mockCatalog struct {
	mu         sync.Mutex
	owned      map[int64]bool
	addErr     error
	adds       []int64
	ownedCalls int
}

func (c *mockCatalog) OwnedIDs(context.Context) (map[int64]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ownedCalls++
	out := make(map[int64]bool, len(c.owned))
	for id := range c.owned {
		out[id] = true
	}
	return out, nil
}

func (c *mockCatalog) AddRemote(_ context.Context, rp remote.Provider) (provider.Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.addErr != nil {
		return provider.Provider{}, c.addErr
	}
	if c.owned == nil {
		c.owned = make(map[int64]bool)
	}
	c.owned[rp.ProviderID] = true
	c.adds = append(c.adds, rp.ProviderID)
	return rp.ToLocal(true, true), nil
}

// --- Helpers ---

func newTestModel(src Source, cat Catalog) Model {
	m := NewModel(src, cat, Options{PageSize: 10})
	m.width = 80
	m.height = 24
	return m
}

// runCmd executes a tea.Cmd synchronously and returns the resulting message.
func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

// update feeds msg to m and returns the new model and command.
func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	result, cmd := m.Update(msg)
	return result.(Model), cmd
}

// drainBatch runs a batch cmd and feeds all resulting messages into the model,
// returning the final model state and the cmd produced by the last message.
func drainBatch(t *testing.T, m Model, batchCmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	msg := runCmd(batchCmd)
	if msg == nil {
		return m, nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var lastCmd tea.Cmd
		for _, cmd := range batch {
			sub := runCmd(cmd)
			if sub == nil {
				continue
			}
			m, lastCmd = update(m, sub)
		}
		return m, lastCmd
	}
	return update(m, msg)
}

// initToLoading runs Init, the owned-id refresh, and the initMsg, leaving
// the first page in flight. The returned cmd fetches page 1.
func initToLoading(t *testing.T, m Model) (Model, tea.Cmd) {
	t.Helper()
	m, fetch := drainBatch(t, m, m.Init())
	require.Equal(t, stateLoading, m.state)
	require.NotNil(t, fetch)
	return m, fetch
}

// initAndLoad runs the full Init -> page 1 cycle and returns the model and
// any follow-up command (such as an automatic next-page fetch).
func initAndLoad(t *testing.T, m Model) (Model, tea.Cmd) {
	t.Helper()
	m, fetch := initToLoading(t, m)
	return update(m, runCmd(fetch))
}

// settleQuery fires the pending debounce timer and returns the fetch command.
func settleQuery(t *testing.T, m Model) (Model, tea.Cmd) {
	t.Helper()
	m, cmd := update(m, debounceMsg{id: m.debounceID})
	require.NotNil(t, cmd)
	require.Equal(t, stateLoading, m.state)
	return m, cmd
}

func labelsOf(items []remote.Provider) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Label
	}
	return out
}

// --- State transitions ---

func TestInitialState(t *testing.T) {
	m := newTestModel(&mockSource{}, nil)
	assert.Equal(t, stateIdle, m.state)
	assert.Equal(t, -1, m.selection)
}

func TestInit_LoadsFirstPageAndOwnedIDs(t *testing.T) {
	src := &mockSource{providers: remotetest.Numbered(3)}
	cat := &mockCatalog{owned: map[int64]bool{2: true}}
	m := newTestModel(src, cat)

	m, next := initAndLoad(t, m)

	assert.Equal(t, stateLoaded, m.state)
	assert.Equal(t, []string{"P1", "P2", "P3"}, labelsOf(m.Items()))
	assert.Equal(t, 0, m.selection)
	assert.False(t, m.HasMore())
	assert.Nil(t, next)

	assert.Equal(t, 1, cat.ownedCalls)
	assert.True(t, m.Owned(2))
	assert.False(t, m.Owned(1))
	assert.Contains(t, m.View(), "[added]")
}

func TestLoading_ToEmpty(t *testing.T) {
	m := newTestModel(&mockSource{}, nil)
	m, _ = initAndLoad(t, m)

	assert.Equal(t, stateEmpty, m.state)
	assert.Equal(t, -1, m.selection)
	assert.Contains(t, m.View(), "No matches")
}

func TestLoading_ToError(t *testing.T) {
	m := newTestModel(&mockSource{err: errors.New("connection refused")}, nil)
	m, _ = initAndLoad(t, m)

	assert.Equal(t, stateError, m.state)
	assert.EqualError(t, m.err, "connection refused")
	assert.Contains(t, m.View(), "connection refused")
}

func TestEsc_Quits(t *testing.T) {
	m := newTestModel(&mockSource{providers: remotetest.Numbered(1)}, nil)
	m, _ = initAndLoad(t, m)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stateCancelled, m.state)
	assert.NotNil(t, runCmd(cmd))
}

// --- Pagination ---

func TestPagination_ExactlyOnePage(t *testing.T) {
	src := &mockSource{providers: remotetest.Numbered(10)}
	m := newTestModel(src, nil)

	m, next := initAndLoad(t, m)

	assert.Len(t, m.Items(), 10)
	assert.False(t, m.HasMore())
	assert.Nil(t, next, "no further page is requested")
	assert.Nil(t, m.LoadNextPage())
	assert.Equal(t, []int{1}, src.pagesRequested())
}

func TestPagination_OnePastAPage(t *testing.T) {
	src := &mockSource{providers: remotetest.Numbered(11)}
	m := newTestModel(src, nil)

	m, next := initAndLoad(t, m)
	assert.Len(t, m.Items(), 10)
	assert.True(t, m.HasMore())

	// The whole first page fits on screen, so the sentinel is already in view.
	require.NotNil(t, next)
	msg := runCmd(next).(pageDoneMsg)
	assert.Equal(t, 2, msg.page)
	assert.Len(t, msg.result.Providers, 1)

	m, _ = update(m, msg)
	assert.Len(t, m.Items(), 11)
	assert.False(t, m.HasMore())
	assert.Equal(t, []int{1, 2}, src.pagesRequested())
	assert.Contains(t, m.View(), "End of results")
}

func TestPagination_NoDuplicateInFlight(t *testing.T) {
	src := &mockSource{providers: remotetest.Numbered(25)}
	m := newTestModel(src, nil)

	m, page2 := initAndLoad(t, m)
	require.NotNil(t, page2)

	// Page 2 is in flight: further triggers are ignored.
	assert.Nil(t, m.LoadNextPage())
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Nil(t, cmd)

	m, page3 := update(m, runCmd(page2))
	require.NotNil(t, page3)
	assert.Nil(t, m.LoadNextPage())

	m, after := update(m, runCmd(page3))
	assert.Nil(t, after)
	assert.Len(t, m.Items(), 25)
	assert.False(t, m.HasMore())
	assert.Equal(t, []int{1, 2, 3}, src.pagesRequested())
}

func TestPagination_SentinelFollowsSelection(t *testing.T) {
	src := &mockSource{providers: remotetest.Numbered(25)}
	m := newTestModel(src, nil)
	m.height = 8 // four visible rows

	m, next := initAndLoad(t, m)
	assert.Nil(t, next, "end of list is out of view")

	var cmd tea.Cmd
	for i := 0; i < 6; i++ {
		m, cmd = update(m, tea.KeyMsg{Type: tea.KeyDown})
		require.Nil(t, cmd, "selection %d", m.selection)
	}
	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 7, m.selection)
	require.NotNil(t, cmd)

	msg := runCmd(cmd).(pageDoneMsg)
	assert.Equal(t, 2, msg.page)
}

func TestPagination_LaterPageErrorKeepsItems(t *testing.T) {
	src := &mockSource{providers: remotetest.Numbered(15), err: errors.New("timeout"), failPage: 2}
	m := newTestModel(src, nil)

	m, page2 := initAndLoad(t, m)
	require.NotNil(t, page2)
	m, _ = update(m, runCmd(page2))

	assert.Equal(t, stateLoaded, m.state)
	assert.Len(t, m.Items(), 10)
	assert.Contains(t, m.notice, "timeout")

	// The failed page can be requested again.
	src.err = nil
	cmd := m.LoadNextPage()
	require.NotNil(t, cmd)
	m, _ = update(m, runCmd(cmd))
	assert.Len(t, m.Items(), 15)
}

func TestPagination_DuplicateEntriesAcrossPagesDropped(t *testing.T) {
	m := newTestModel(&mockSource{}, nil)
	m, _ = initToLoading(t, m)

	first := remotetest.Numbered(3)
	m, cmd := update(m, pageDoneMsg{requestID: m.requestID, page: 1, result: remote.Page{Providers: first, HasMore: true}})
	require.NotNil(t, cmd, "page 2 is requested")
	require.Equal(t, 2, m.inFlight)

	// Page 2 overlaps page 1 after a ranking shift.
	m, _ = update(m, pageDoneMsg{requestID: m.requestID, page: 2, result: remote.Page{Providers: []remote.Provider{first[2], {ProviderID: 9, Label: "P9"}}}})

	assert.Equal(t, []string{"P1", "P2", "P3", "P9"}, labelsOf(m.Items()))
}

// --- Query changes ---

func TestTyping_StartsDebounce(t *testing.T) {
	m := newTestModel(&mockSource{}, nil)
	m, _ = initAndLoad(t, m)
	before := m.debounceID

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	assert.NotNil(t, cmd)
	assert.Equal(t, before+1, m.debounceID)
	assert.Equal(t, "g", m.keyword.Value())
	assert.Equal(t, stateEmpty, m.state, "nothing is fetched until the timer fires")
}

func TestTab_SwitchesToTagField(t *testing.T) {
	m := newTestModel(&mockSource{}, nil)
	m, _ = initAndLoad(t, m)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, m.focusTag)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("news")})
	assert.Equal(t, "news", m.tag.Value())
	assert.Empty(t, m.keyword.Value())
}

func TestDebounce_StaleTimerIgnored(t *testing.T) {
	src := &mockSource{}
	m := newTestModel(src, nil)
	m, _ = initAndLoad(t, m)

	m.SetQuery("a", "")
	staleID := m.debounceID
	m.SetQuery("ab", "")

	m, cmd := update(m, debounceMsg{id: staleID})
	assert.Nil(t, cmd)
	assert.Len(t, src.pagesRequested(), 1)
}

func TestDebounce_UnchangedQueryDoesNotRefetch(t *testing.T) {
	src := &mockSource{providers: remotetest.Numbered(2)}
	m := newTestModel(src, nil)
	m, _ = initAndLoad(t, m)

	m.SetQuery("", "")
	_, cmd := update(m, debounceMsg{id: m.debounceID})
	assert.Nil(t, cmd)
}

func TestQueryChange_ResetsPagination(t *testing.T) {
	src := &mockSource{providers: remotetest.Numbered(25)}
	m := newTestModel(src, nil)
	m.height = 8

	m, _ = initAndLoad(t, m)
	require.Len(t, m.Items(), 10)

	m.SetQuery("P1", "")
	m, fetch := settleQuery(t, m)
	assert.Empty(t, m.Items())
	assert.Equal(t, -1, m.selection)

	m, _ = update(m, runCmd(fetch))
	// P1, P10..P19
	assert.Len(t, m.Items(), 10)
	assert.Equal(t, "P1", m.Items()[0].Label)

	q := src.queries[len(src.queries)-1]
	assert.Equal(t, remote.Query{Keyword: "P1", Page: 1, PageSize: 10}, q)
}

func TestQueryChange_LateResponseForOldQueryDiscarded(t *testing.T) {
	src := &mockSource{providers: []remote.Provider{
		{ProviderID: 1, Label: "alpha"},
		{ProviderID: 2, Label: "beta"},
	}}

	for _, order := range []string{"A then B", "B then A"} {
		t.Run(order, func(t *testing.T) {
			m := newTestModel(src, nil)
			m, _ = initAndLoad(t, m)

			m.SetQuery("alpha", "")
			m, fetchA := settleQuery(t, m)
			m.SetQuery("beta", "")
			m, fetchB := settleQuery(t, m)

			msgA := runCmd(fetchA)
			msgB := runCmd(fetchB)
			if order == "A then B" {
				m, _ = update(m, msgA)
				assert.Equal(t, stateLoading, m.state, "query A's result is stale")
				assert.Empty(t, m.Items())
				m, _ = update(m, msgB)
			} else {
				m, _ = update(m, msgB)
				m, _ = update(m, msgA)
			}

			assert.Equal(t, stateLoaded, m.state)
			assert.Equal(t, []string{"beta"}, labelsOf(m.Items()))
		})
	}
}

func TestQueryChange_CancelsInflightFetch(t *testing.T) {
	src := &mockSource{providers: remotetest.Numbered(3)}
	m := newTestModel(src, nil)
	m, fetch := initToLoading(t, m)

	m.SetQuery("P2", "")
	m, _ = settleQuery(t, m)

	msg := runCmd(fetch).(pageDoneMsg)
	assert.ErrorIs(t, msg.err, context.Canceled)

	m, _ = update(m, msg)
	assert.Equal(t, stateLoading, m.state)
}

// --- Adding ---

func TestEnter_AddsSelectedEntry(t *testing.T) {
	src := &mockSource{providers: remotetest.Numbered(3)}
	cat := &mockCatalog{}
	m := newTestModel(src, cat)
	m, _ = initAndLoad(t, m)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "[...]")

	// A second press while the add is pending does nothing.
	_, again := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)

	m, refresh := update(m, runCmd(cmd))
	assert.True(t, m.Owned(2))
	require.Len(t, m.Added(), 1)
	assert.Equal(t, int64(2), m.Added()[0].ProviderID)
	assert.Equal(t, "Added P2", m.notice)

	require.NotNil(t, refresh, "owned ids are refreshed after an add")
	m, _ = update(m, runCmd(refresh))
	assert.Equal(t, 2, cat.ownedCalls)
	assert.True(t, m.Owned(2))

	_, cmd = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "installed entries cannot be added twice")
	assert.Equal(t, []int64{2}, cat.adds)
}

func TestEnter_AddFailureSurfacesNotice(t *testing.T) {
	src := &mockSource{providers: remotetest.Numbered(1)}
	cat := &mockCatalog{addErr: errors.New("disk full")}
	m := newTestModel(src, cat)
	m, _ = initAndLoad(t, m)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(m, runCmd(cmd))

	assert.False(t, m.Owned(1))
	assert.Empty(t, m.Added())
	assert.Contains(t, m.View(), "Could not add P1: disk full")

	cat.addErr = nil
	_, cmd = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd, "a failed add can be retried")
}

func TestEnter_NoCatalogIsNoOp(t *testing.T) {
	m := newTestModel(&mockSource{providers: remotetest.Numbered(1)}, nil)
	m, _ = initAndLoad(t, m)

	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
