// Package selection turns raw selection-change and pointer-move signals into a
// single stable snapshot of the selected text and where to anchor the bubble.
package selection

import (
	"sync"
)

// Point is a viewport position in CSS pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// State is the current selection snapshot.
type State struct {
	Text   string `json:"text"`
	Anchor Point  `json:"anchor"`
	Source string `json:"source"` // Address of the page the selection came from
}

// Empty reports whether there is no selection.
func (s State) Empty() bool { return s.Text == "" }

// Event classifies what a selection-change signal did to the state.
type Event int

const (
	EventNone     Event = iota // Nothing changed
	EventSelected              // Selection went from empty to non-empty
	EventUpdated               // Non-empty selection changed text
	EventCleared               // Selection collapsed to empty
	EventBlank                 // Signal carried only invisible characters; treated as no selection
)

func (e Event) String() string {
	switch e {
	case EventSelected:
		return "selected"
	case EventUpdated:
		return "updated"
	case EventCleared:
		return "cleared"
	case EventBlank:
		return "blank"
	default:
		return "none"
	}
}

// Tracker owns the selection state. Pointer samples are cached as they
// arrive; selection changes only read the cached sample, so the anchor is
// the pointer position at the moment the text became non-empty and does not
// move while the selection is extended or when the user clicks the bubble.
type Tracker struct {
	mu      sync.Mutex
	pointer Point
	state   State

	subs    map[int]func(State)
	nextSub int
}

// NewTracker creates a tracker with no selection.
func NewTracker() *Tracker {
	return &Tracker{subs: make(map[int]func(State))}
}

// PointerMoved caches the latest pointer position. It never changes the
// published state.
func (t *Tracker) PointerMoved(x, y float64) {
	t.mu.Lock()
	t.pointer = Point{X: x, Y: y}
	t.mu.Unlock()
}

// SelectionChanged applies a selection-change signal carrying the raw
// selected text and the address of the page it came from.
func (t *Tracker) SelectionChanged(raw, source string) Event {
	text := Normalize(raw)

	t.mu.Lock()
	prev := t.state
	var ev Event
	switch {
	case text == "" && prev.Empty():
		ev = EventNone
		if raw != "" {
			ev = EventBlank
		}
	case text == "":
		t.state = State{}
		ev = EventCleared
		if raw != "" {
			ev = EventBlank
		}
	case prev.Empty():
		t.state = State{Text: text, Anchor: t.pointer, Source: source}
		ev = EventSelected
	case prev.Text != text || prev.Source != source:
		t.state.Text = text
		t.state.Source = source
		ev = EventUpdated
	default:
		ev = EventNone
	}
	next := t.state
	subs := t.snapshotSubs()
	t.mu.Unlock()

	if next != prev {
		for _, fn := range subs {
			fn(next)
		}
	}
	return ev
}

// Collapse resets the state to empty, as when the native selection is cleared.
func (t *Tracker) Collapse() {
	t.SelectionChanged("", "")
}

// Current returns the current snapshot.
func (t *Tracker) Current() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Subscribe registers fn to be called with every new state. The returned
// function removes the subscription. Callbacks run on the goroutine that
// delivered the signal, after the state has been updated.
func (t *Tracker) Subscribe(fn func(State)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *Tracker) snapshotSubs() []func(State) {
	if len(t.subs) == 0 {
		return nil
	}
	out := make([]func(State), 0, len(t.subs))
	for _, fn := range t.subs {
		out = append(out, fn)
	}
	return out
}
