// Package engine wires the selection tracker, the persisted catalog, the
// dispatcher, reordering and the remote catalog into the operations a UI
// surface calls.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/runger/selact/internal/catalog"
	"github.com/runger/selact/internal/dispatch"
	"github.com/runger/selact/internal/provider"
	"github.com/runger/selact/internal/remote"
	"github.com/runger/selact/internal/selection"
	"github.com/runger/selact/internal/storage"
)

// notifyTimeout bounds fire-and-forget calls to the remote catalog.
const notifyTimeout = 10 * time.Second

var (
	// ErrUnknownProvider is returned when no catalog entry has the given id.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNoRemote is returned by operations that need the remote catalog
	// when none is configured.
	ErrNoRemote = errors.New("remote catalog is not configured")

	// ErrAlreadyPublished is returned when publishing an entry that already
	// carries a remote id.
	ErrAlreadyPublished = errors.New("provider is already in the remote catalog")
)

// RemoteCatalog is the subset of *remote.Client the engine uses.
type RemoteCatalog interface {
	Search(ctx context.Context, q remote.Query) (remote.Page, error)
	Initial(ctx context.Context) ([]remote.Provider, error)
	Use(ctx context.Context, id int64) error
	Obsolete(ctx context.Context, id int64) error
	Publish(ctx context.Context, p provider.Provider) (remote.Provider, error)
}

// Options configures an Engine. The zero value is usable.
type Options struct {
	Remote        RemoteCatalog       // nil disables remote features
	Host          dispatch.Host       // default dispatch.NewSystemHost()
	OnExpand      dispatch.ExpandFunc // called when a menu provider fires
	Logger        *slog.Logger
	ConfirmWindow time.Duration    // default dispatch.DefaultConfirmWindow
	Now           func() time.Time // default time.Now

	// Visibility given to entries added from the remote catalog.
	RemoteAddBubble bool
	RemoteAddPanel  bool

	// SeedPageSize is how many popular entries Seed installs when the
	// service has no curated list.
	SeedPageSize int
}

// Engine is safe for concurrent use. Catalog read-modify-write sequences
// are serialized, so concurrent callers within one process never lose an
// update; separate processes sharing the store still race last-writer-wins.
type Engine struct {
	store      storage.Store
	tracker    *selection.Tracker
	dispatcher *dispatch.Dispatcher
	guard      *dispatch.ConfirmGuard
	remote     RemoteCatalog
	logger     *slog.Logger
	opts       Options

	mu sync.Mutex  // Serializes catalog writes
	bg sync.WaitGroup
}

// New creates an Engine over store.
func New(store storage.Store, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Host == nil {
		opts.Host = dispatch.NewSystemHost()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SeedPageSize < 1 {
		opts.SeedPageSize = 50
	}

	return &Engine{
		store:      store,
		tracker:    selection.NewTracker(),
		dispatcher: dispatch.New(opts.Host, opts.OnExpand, dispatch.WithLogger(opts.Logger)),
		guard:      dispatch.NewConfirmGuard(opts.ConfirmWindow, opts.Now),
		remote:     opts.Remote,
		logger:     opts.Logger,
		opts:       opts,
	}
}

// OnPointerMove records a pointer sample.
func (e *Engine) OnPointerMove(x, y float64) {
	e.tracker.PointerMoved(x, y)
}

// OnSelectionChange feeds a raw selection-change signal to the tracker.
func (e *Engine) OnSelectionChange(raw, source string) selection.Event {
	return e.tracker.SelectionChanged(raw, source)
}

// Selection returns the current selection.
func (e *Engine) Selection() selection.State {
	return e.tracker.Current()
}

func (e *Engine) liveContext() catalog.Context {
	s := e.tracker.Current()
	return catalog.Context{Text: s.Text, Source: s.Source}
}

// Providers returns the persisted catalog.
func (e *Engine) Providers(ctx context.Context) ([]provider.Provider, error) {
	return e.store.Providers(ctx)
}

// Projection computes both surfaces for the live selection.
func (e *Engine) Projection(ctx context.Context) (catalog.Projection, error) {
	providers, err := e.store.Providers(ctx)
	if err != nil {
		return catalog.Projection{}, err
	}
	order, err := e.store.GroupOrder(ctx)
	if err != nil {
		return catalog.Projection{}, err
	}
	return catalog.Project(providers, order, e.liveContext()), nil
}

// BubbleList returns the bubble surface for the live selection.
func (e *Engine) BubbleList(ctx context.Context) ([]provider.Provider, error) {
	providers, err := e.store.Providers(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.BubbleList(providers, e.liveContext()), nil
}

// PanelGroups returns the panel surface for the live selection.
func (e *Engine) PanelGroups(ctx context.Context) ([]catalog.Group, error) {
	p, err := e.Projection(ctx)
	if err != nil {
		return nil, err
	}
	return p.Panel, nil
}

// BubbleOffset returns the stored bubble offset.
func (e *Engine) BubbleOffset(ctx context.Context) (storage.Offset, error) {
	return e.store.BubbleOffset(ctx)
}

// SetBubbleOffset stores the bubble offset.
func (e *Engine) SetBubbleOffset(ctx context.Context, off storage.Offset) error {
	return e.store.SetBubbleOffset(ctx, off)
}

// BubblePosition returns where the bubble is drawn: the selection anchor
// shifted by the stored offset.
func (e *Engine) BubblePosition(ctx context.Context) (selection.Point, error) {
	off, err := e.store.BubbleOffset(ctx)
	if err != nil {
		return selection.Point{}, err
	}
	a := e.tracker.Current().Anchor
	return selection.Point{X: a.X + off.X, Y: a.Y + off.Y}, nil
}

// Dispatch runs the provider's action for one activation against the live
// selection. Successful search and copy actions collapse the selection.
func (e *Engine) Dispatch(ctx context.Context, providerID int64, activationID string) (dispatch.Result, error) {
	providers, err := e.store.Providers(ctx)
	if err != nil {
		return dispatch.Result{}, err
	}
	idx := provider.Index(providers, providerID)
	if idx < 0 {
		return dispatch.Result{}, fmt.Errorf("%w: %d", ErrUnknownProvider, providerID)
	}

	live := e.liveContext()
	p := providers[idx].WithContext(live.Text, live.Source)
	res, err := e.dispatcher.Dispatch(ctx, p, activationID)
	if err != nil {
		e.logger.Debug("dispatch failed", "provider_id", providerID, "kind", p.Kind, "error", err)
		return res, err
	}
	if res.Cleared {
		e.tracker.Collapse()
	}
	e.logger.Debug("dispatched", "provider_id", providerID, "kind", p.Kind, "duplicate", res.Duplicate)
	return res, nil
}

// OwnedIDs returns the ids present in the local catalog.
func (e *Engine) OwnedIDs(ctx context.Context) (map[int64]bool, error) {
	providers, err := e.store.Providers(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]bool, len(providers))
	for _, p := range providers {
		if p.HasID() {
			ids[p.ProviderID] = true
		}
	}
	return ids, nil
}

// Wait blocks until background remote notifications have finished.
func (e *Engine) Wait() {
	e.bg.Wait()
}

// notify runs a fire-and-forget remote call. Failures are logged only.
func (e *Engine) notify(op string, id int64, call func(context.Context, int64) error) {
	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := call(ctx, id); err != nil {
			e.logger.Warn("remote notification failed", "op", op, "provider_id", id, "error", err)
		}
	}()
}

// mutate runs fn on the current catalog under the write lock and stores
// the result.
func (e *Engine) mutate(ctx context.Context, fn func([]provider.Provider) ([]provider.Provider, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	providers, err := e.store.Providers(ctx)
	if err != nil {
		return err
	}
	next, err := fn(providers)
	if err != nil {
		return err
	}
	return e.store.SetProviders(ctx, next)
}
