// Package picker implements the remote catalog browser: a debounced,
// paginated search over the shared catalog that adds chosen entries to the
// local catalog.
package picker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runger/selact/internal/provider"
	"github.com/runger/selact/internal/remote"
)

// DefaultDebounce is the input quiescence required before a query is sent.
const DefaultDebounce = 500 * time.Millisecond

// sentinelMargin is how many rows from the end of the list count as the
// sentinel being in view.
const sentinelMargin = 3

// pickerState is the state of the first page of the active query.
type pickerState int

const (
	stateIdle      pickerState = iota // Before the first query
	stateLoading                      // First page in flight
	stateLoaded                       // At least one item
	stateEmpty                        // Query resolved with no items
	stateError                        // First page failed
	stateCancelled                    // User quit
)

// pageStatus tracks one page of the active query. A page absent from the
// map has not been requested.
type pageStatus int

const (
	pageInFlight pageStatus = iota + 1
	pageResolved
)

// pageDoneMsg is sent when a Search call completes.
type pageDoneMsg struct {
	requestID uint64
	page      int
	result    remote.Page
	err       error
}

// debounceMsg fires after the debounce timer expires.
type debounceMsg struct {
	id uint64 // Must match current debounceID to be accepted
}

// ownedMsg carries a refreshed set of installed provider ids.
type ownedMsg struct {
	ids map[int64]bool
	err error
}

// addedMsg reports the outcome of adding a remote entry locally.
type addedMsg struct {
	remoteID int64
	label    string
	added    provider.Provider
	err      error
}

// initMsg is sent by Init() to trigger the first query through Update.
type initMsg struct{}

// Options configures a Model.
type Options struct {
	PageSize int           // Items per page, default remote.DefaultPageSize
	Debounce time.Duration // Default DefaultDebounce
	Keyword  string        // Initial keyword
	Tag      string        // Initial tag filter
}

// Model is the Bubble Tea model for the remote catalog browser.
type Model struct {
	state    pickerState
	source   Source
	catalog  Catalog
	pageSize int
	debounce time.Duration

	keyword  textinput.Model
	tag      textinput.Model
	focusTag bool

	query    remote.Query // Active query; Page and PageSize unused
	pages    map[int]pageStatus
	lastPage int  // Highest resolved page, 0 before the first
	hasMore  bool // hasMore of lastPage
	inFlight int  // Page currently being fetched, 0 when none
	items    []remote.Provider
	seen     map[int64]bool
	err      error
	notice   string

	selection int // Index into items; -1 when empty

	owned  map[int64]bool
	adding map[int64]bool
	added  []provider.Provider

	requestID   uint64 // Monotonic counter for stale detection
	cancelFetch context.CancelFunc
	debounceID  uint64

	width  int
	height int
}

// NewModel creates a browser over source that installs into catalog.
func NewModel(source Source, catalog Catalog, opts Options) Model {
	if opts.PageSize < 1 {
		opts.PageSize = remote.DefaultPageSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	kw := textinput.New()
	kw.Prompt = "search: "
	kw.Placeholder = "keyword"
	kw.CharLimit = 100
	kw.SetValue(opts.Keyword)
	kw.Focus()

	tag := textinput.New()
	tag.Prompt = "tag: "
	tag.Placeholder = "any"
	tag.CharLimit = 32
	tag.SetValue(opts.Tag)

	return Model{
		state:     stateIdle,
		source:    source,
		catalog:   catalog,
		pageSize:  opts.PageSize,
		debounce:  opts.Debounce,
		keyword:   kw,
		tag:       tag,
		pages:     make(map[int]pageStatus),
		seen:      make(map[int64]bool),
		selection: -1,
		owned:     make(map[int64]bool),
		adding:    make(map[int64]bool),
	}
}

// Added returns the providers installed during this session, in order.
func (m Model) Added() []provider.Provider {
	return provider.CloneAll(m.added)
}

// Items returns the remote entries loaded for the active query.
func (m Model) Items() []remote.Provider {
	return append([]remote.Provider(nil), m.items...)
}

// HasMore reports whether the latest resolved page said more pages exist.
func (m Model) HasMore() bool { return m.hasMore }

// Owned reports whether the remote entry id is already in the local catalog.
func (m Model) Owned(id int64) bool { return m.owned[id] }

// Init implements tea.Model. The installed-id set is refreshed every time
// the browser opens.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refreshOwned(), func() tea.Msg { return initMsg{} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.checkSentinel()

	case initMsg:
		return m, m.startQuery()

	case debounceMsg:
		return m.handleDebounce(msg)

	case pageDoneMsg:
		return m.handlePage(msg)

	case ownedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Could not read local catalog: %v", msg.err)
			return m, nil
		}
		m.owned = msg.ids
		return m, nil

	case addedMsg:
		return m.handleAdded(msg)
	}

	var cmd tea.Cmd
	if m.focusTag {
		m.tag, cmd = m.tag.Update(msg)
	} else {
		m.keyword, cmd = m.keyword.Update(msg)
	}
	return m, cmd
}

// SetQuery replaces the keyword and tag. The search runs once the debounce
// interval passes without another change.
func (m *Model) SetQuery(keyword, tag string) tea.Cmd {
	m.keyword.SetValue(keyword)
	m.tag.SetValue(tag)
	return m.startDebounce()
}

// LoadNextPage requests the page after the latest resolved one. It returns
// nil when a page is already in flight, when the latest page had no more
// results, or when that page was already requested.
func (m *Model) LoadNextPage() tea.Cmd {
	if m.inFlight != 0 || !m.hasMore || m.lastPage == 0 {
		return nil
	}
	next := m.lastPage + 1
	if _, requested := m.pages[next]; requested {
		return nil
	}
	return m.fetchPage(next)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.state = stateCancelled
		m.cancelInflight()
		return m, tea.Quit

	case tea.KeyEnter:
		return m, m.addSelected()

	case tea.KeyUp:
		if m.selection > 0 {
			m.selection--
		}
		return m, nil

	case tea.KeyDown:
		if m.selection < len(m.items)-1 {
			m.selection++
		}
		return m, m.checkSentinel()

	case tea.KeyPgDown:
		m.selection += m.listHeight()
		m.clampSelection()
		return m, m.checkSentinel()

	case tea.KeyPgUp:
		m.selection -= m.listHeight()
		m.clampSelection()
		return m, nil

	case tea.KeyTab, tea.KeyShiftTab:
		m.focusTag = !m.focusTag
		if m.focusTag {
			m.keyword.Blur()
			return m, m.tag.Focus()
		}
		m.tag.Blur()
		return m, m.keyword.Focus()
	}

	before := m.keyword.Value() + "\x00" + m.tag.Value()
	var cmd tea.Cmd
	if m.focusTag {
		m.tag, cmd = m.tag.Update(msg)
	} else {
		m.keyword, cmd = m.keyword.Update(msg)
	}
	if m.keyword.Value()+"\x00"+m.tag.Value() != before {
		return m, tea.Batch(cmd, m.startDebounce())
	}
	return m, cmd
}

// handleDebounce starts the new query if the timer is still current.
func (m Model) handleDebounce(msg debounceMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.debounceID {
		return m, nil
	}
	next := m.inputQuery()
	if next.Key() == m.query.Key() && m.state != stateIdle && m.state != stateError {
		return m, nil
	}
	return m, m.startQuery()
}

// handlePage applies a page result if it belongs to the active query.
func (m Model) handlePage(msg pageDoneMsg) (tea.Model, tea.Cmd) {
	if msg.requestID != m.requestID || msg.page != m.inFlight {
		return m, nil
	}
	m.inFlight = 0
	m.cancelInflight()

	if msg.err != nil {
		delete(m.pages, msg.page)
		if msg.page == 1 {
			m.state = stateError
			m.err = msg.err
			m.items = nil
			m.selection = -1
			return m, nil
		}
		m.notice = fmt.Sprintf("Could not load more: %v", msg.err)
		return m, nil
	}

	m.pages[msg.page] = pageResolved
	m.lastPage = msg.page
	m.hasMore = msg.result.HasMore
	for _, rp := range msg.result.Providers {
		if m.seen[rp.ProviderID] {
			continue
		}
		m.seen[rp.ProviderID] = true
		m.items = append(m.items, rp)
	}

	if len(m.items) == 0 {
		m.state = stateEmpty
		m.selection = -1
		return m, nil
	}
	m.state = stateLoaded
	m.clampSelection()
	return m, m.checkSentinel()
}

func (m Model) handleAdded(msg addedMsg) (tea.Model, tea.Cmd) {
	delete(m.adding, msg.remoteID)
	if msg.err != nil {
		m.notice = fmt.Sprintf("Could not add %s: %v", msg.label, msg.err)
		return m, nil
	}
	m.owned[msg.remoteID] = true
	m.added = append(m.added, msg.added)
	m.notice = "Added " + msg.label
	return m, m.refreshOwned()
}

// startDebounce increments the debounce counter and returns a tea.Tick
// command that fires after the debounce interval.
func (m *Model) startDebounce() tea.Cmd {
	m.debounceID++
	id := m.debounceID
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return debounceMsg{id: id}
	})
}

// startQuery discards everything loaded for the previous query, including
// any page still in flight, and requests page 1 of the current input.
func (m *Model) startQuery() tea.Cmd {
	m.cancelInflight()
	m.query = m.inputQuery()
	m.pages = make(map[int]pageStatus)
	m.seen = make(map[int64]bool)
	m.items = nil
	m.lastPage = 0
	m.hasMore = false
	m.inFlight = 0
	m.selection = -1
	m.err = nil
	m.notice = ""
	m.state = stateLoading
	return m.fetchPage(1)
}

// fetchPage marks page in flight and returns a tea.Cmd that searches for it.
func (m *Model) fetchPage(page int) tea.Cmd {
	m.cancelInflight()
	m.requestID++
	m.pages[page] = pageInFlight
	m.inFlight = page

	reqID := m.requestID
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFetch = cancel

	q := remote.Query{
		Keyword:  m.query.Keyword,
		Tag:      m.query.Tag,
		Page:     page,
		PageSize: m.pageSize,
	}
	src := m.source
	return func() tea.Msg {
		res, err := src.Search(ctx, q)
		return pageDoneMsg{requestID: reqID, page: page, result: res, err: err}
	}
}

// checkSentinel loads the next page when the end of the list is in view.
func (m *Model) checkSentinel() tea.Cmd {
	if m.state != stateLoaded {
		return nil
	}
	if len(m.items) > m.listHeight() && m.selection < len(m.items)-sentinelMargin {
		return nil
	}
	return m.LoadNextPage()
}

func (m *Model) refreshOwned() tea.Cmd {
	if m.catalog == nil {
		return nil
	}
	cat := m.catalog
	return func() tea.Msg {
		ids, err := cat.OwnedIDs(context.Background())
		return ownedMsg{ids: ids, err: err}
	}
}

// addSelected installs the highlighted entry unless it is already
// installed or being installed.
func (m *Model) addSelected() tea.Cmd {
	if m.catalog == nil || m.selection < 0 || m.selection >= len(m.items) {
		return nil
	}
	rp := m.items[m.selection]
	if m.owned[rp.ProviderID] || m.adding[rp.ProviderID] {
		return nil
	}
	m.adding[rp.ProviderID] = true

	cat := m.catalog
	return func() tea.Msg {
		p, err := cat.AddRemote(context.Background(), rp)
		return addedMsg{remoteID: rp.ProviderID, label: rp.Label, added: p, err: err}
	}
}

func (m Model) inputQuery() remote.Query {
	return remote.Query{
		Keyword: strings.TrimSpace(m.keyword.Value()),
		Tag:     strings.TrimSpace(m.tag.Value()),
	}
}

// cancelInflight cancels any in-progress fetch context.
func (m *Model) cancelInflight() {
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
}

// clampSelection ensures the selection index is within bounds.
func (m *Model) clampSelection() {
	if len(m.items) == 0 {
		m.selection = -1
		return
	}
	if m.selection < 0 {
		m.selection = 0
	}
	if m.selection >= len(m.items) {
		m.selection = len(m.items) - 1
	}
}

// listHeight returns the number of visible list rows.
func (m Model) listHeight() int {
	// title, inputs, blank, status
	const chrome = 4
	h := m.height - chrome
	if h < 1 {
		h = 20 // Sensible default before first WindowSizeMsg
	}
	return h
}

// --- View rendering ---

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	ownedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" Remote catalog "))
	b.WriteRune('\n')
	b.WriteString(m.keyword.View())
	b.WriteString("  ")
	b.WriteString(m.tag.View())
	b.WriteString("\n\n")
	b.WriteString(m.viewContent())
	b.WriteRune('\n')
	b.WriteString(m.viewStatus())

	return b.String()
}

// viewContent renders the item list or a status message.
func (m Model) viewContent() string {
	switch m.state {
	case stateIdle, stateLoading:
		return dimStyle.Render("Loading...")
	case stateEmpty:
		return dimStyle.Render("No matches")
	case stateError:
		msg := "Error"
		if m.err != nil {
			msg = fmt.Sprintf("Error: %s", m.err)
		}
		return errorStyle.Render(msg)
	case stateCancelled:
		return dimStyle.Render("Cancelled")
	case stateLoaded:
		return m.viewList()
	default:
		return ""
	}
}

// viewList renders the visible window of items with a selection marker.
func (m Model) viewList() string {
	height := m.listHeight()
	start := 0
	if m.selection >= height {
		start = m.selection - height + 1
	}
	end := start + height
	if end > len(m.items) {
		end = len(m.items)
	}

	rows := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		rows = append(rows, m.viewRow(i))
	}
	if end == len(m.items) {
		switch {
		case m.inFlight > 1:
			rows = append(rows, dimStyle.Render("  Loading more..."))
		case !m.hasMore:
			rows = append(rows, dimStyle.Render("  End of results"))
		}
	}
	return strings.Join(rows, "\n")
}

func (m Model) viewRow(i int) string {
	rp := m.items[i]

	status := "[+]"
	style := normalStyle
	switch {
	case m.owned[rp.ProviderID]:
		status = "[added]"
		style = ownedStyle
	case m.adding[rp.ProviderID]:
		status = "[...]"
	}

	tag := provider.DisplayTag(rp.Tag)
	width := m.width - len(status) - len(tag) - 6
	if width < 10 {
		width = 40
	}
	label := DisplayLabel(rp.Label, width)

	line := fmt.Sprintf("%s %s %s", status, label, dimStyle.Render(tag))
	if i == m.selection {
		return selectedStyle.Render("> ") + style.Render(line)
	}
	return "  " + style.Render(line)
}

func (m Model) viewStatus() string {
	if m.notice != "" {
		return dimStyle.Render(m.notice)
	}
	return dimStyle.Render("enter: add  tab: switch field  esc: quit")
}
