package dispatch

import (
	"sync"
	"time"
)

// DefaultConfirmWindow is how soon a second activation must follow the first
// to confirm a destructive action.
const DefaultConfirmWindow = 250 * time.Millisecond

// Decision is the outcome of one activation of a guarded control.
type Decision int

const (
	// DecisionWarn means the control is now armed; show a warning.
	DecisionWarn Decision = iota
	// DecisionCommit means the activation confirmed the action.
	DecisionCommit
)

func (d Decision) String() string {
	if d == DecisionCommit {
		return "commit"
	}
	return "warn"
}

// ConfirmGuard implements debounce-to-confirm for destructive controls. Each
// control is either disarmed or armed at a timestamp. An activation within
// the window of the arming one commits and disarms; any other activation
// arms (or re-arms) the control and asks for a warning. An armed control
// whose window lapses is simply stale; there is no timer to cancel.
type ConfirmGuard struct {
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	armed map[string]time.Time
}

// NewConfirmGuard creates a guard. A non-positive window uses DefaultConfirmWindow;
// a nil clock uses time.Now.
func NewConfirmGuard(window time.Duration, now func() time.Time) *ConfirmGuard {
	if window <= 0 {
		window = DefaultConfirmWindow
	}
	if now == nil {
		now = time.Now
	}
	return &ConfirmGuard{window: window, now: now, armed: make(map[string]time.Time)}
}

// Window returns the confirmation window.
func (g *ConfirmGuard) Window() time.Duration { return g.window }

// Activate records an activation of control at the current time.
func (g *ConfirmGuard) Activate(control string) Decision {
	return g.ActivateAt(control, g.now())
}

// ActivateAt records an activation of control at the given time.
func (g *ConfirmGuard) ActivateAt(control string, at time.Time) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if armedAt, ok := g.armed[control]; ok {
		elapsed := at.Sub(armedAt)
		if elapsed >= 0 && elapsed <= g.window {
			delete(g.armed, control)
			return DecisionCommit
		}
	}
	g.armed[control] = at
	return DecisionWarn
}

// Disarm forgets any pending activation of control.
func (g *ConfirmGuard) Disarm(control string) {
	g.mu.Lock()
	delete(g.armed, control)
	g.mu.Unlock()
}
