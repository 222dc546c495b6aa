// Package dispatch executes a provider's action against the live selection.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/runger/selact/internal/provider"
)

// recentActivations bounds how many activation IDs are remembered for
// duplicate suppression.
const recentActivations = 128

// Host performs side effects in the environment that owns the page.
type Host interface {
	OpenURL(ctx context.Context, url string) error
	WriteClipboard(ctx context.Context, text string) error
	ClearSelection(ctx context.Context) error
}

// ExpandFunc is called when a menu provider asks to switch from the bubble
// to the panel surface.
type ExpandFunc func(p provider.Provider)

// Result describes what a dispatch did.
type Result struct {
	ProviderID int64         `json:"providerId"`
	Kind       provider.Kind `json:"kind"`
	URL        string        `json:"url,omitempty"`       // search: the opened URL
	Copied     string        `json:"copied,omitempty"`    // copy: the clipboard text
	Expanded   bool          `json:"expanded,omitempty"`  // menu: panel requested
	Cleared    bool          `json:"cleared,omitempty"`   // native selection cleared
	Duplicate  bool          `json:"duplicate,omitempty"` // activation already handled; nothing ran
}

// Dispatcher runs provider actions with at-most-once execution per activation.
type Dispatcher struct {
	host     Host
	onExpand ExpandFunc
	logger   *slog.Logger

	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for non-fatal host failures.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates a Dispatcher. onExpand may be nil when no panel exists.
func New(host Host, onExpand ExpandFunc, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		host:     host,
		onExpand: onExpand,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch executes p for one user activation. p must already carry the live
// selection in its payload (see catalog.Project). A repeated activationID is
// reported as a duplicate and has no effect, so a control that fires both a
// press and a confirmation event runs its action once.
//
// search and copy clear the native selection after their effect succeeds;
// menu keeps it so a panel provider can still use it.
func (d *Dispatcher) Dispatch(ctx context.Context, p provider.Provider, activationID string) (Result, error) {
	res := Result{ProviderID: p.ProviderID, Kind: p.Kind}
	if activationID == "" {
		return res, ErrMissingActivation
	}
	if err := p.Validate(); err != nil {
		return res, err
	}
	if !d.claim(activationID) {
		res.Duplicate = true
		return res, nil
	}

	switch p.Kind {
	case provider.KindSearch:
		if p.Payload.SelectedText == "" {
			return res, ErrNoSelection
		}
		target := BuildSearchURL(p.Payload.Link, p.Payload.SelectedText)
		if err := validateOpenable(target); err != nil {
			return res, err
		}
		if err := d.host.OpenURL(ctx, target); err != nil {
			return res, &ActionError{Kind: p.Kind, Op: "open", Err: err}
		}
		res.URL = target
		res.Cleared = d.clearSelection(ctx)

	case provider.KindCopy:
		if p.Payload.SelectedText == "" {
			return res, ErrNoSelection
		}
		if err := d.host.WriteClipboard(ctx, p.Payload.SelectedText); err != nil {
			return res, &ActionError{Kind: p.Kind, Op: "copy", Err: err}
		}
		res.Copied = p.Payload.SelectedText
		res.Cleared = d.clearSelection(ctx)

	case provider.KindMenu:
		if d.onExpand != nil {
			d.onExpand(p)
		}
		res.Expanded = true

	default:
		return res, fmt.Errorf("%w: %q", provider.ErrUnknownKind, p.Kind)
	}

	return res, nil
}

// claim records activationID and reports whether it was new.
func (d *Dispatcher) claim(activationID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[activationID]; ok {
		return false
	}
	d.seen[activationID] = struct{}{}
	d.order = append(d.order, activationID)
	if len(d.order) > recentActivations {
		delete(d.seen, d.order[0])
		d.order = d.order[1:]
	}
	return true
}

func (d *Dispatcher) clearSelection(ctx context.Context) bool {
	if err := d.host.ClearSelection(ctx); err != nil {
		d.logger.Warn("clear selection failed", "error", err)
		return false
	}
	return true
}
