package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/runger/selact/internal/dispatch"
	"github.com/runger/selact/internal/provider"
	"github.com/runger/selact/internal/remote"
	"github.com/runger/selact/internal/reorder"
)

// DeleteOutcome reports what a guarded delete activation did.
type DeleteOutcome int

const (
	DeleteArmed     DeleteOutcome = iota // First activation; nothing removed yet
	DeleteCommitted                      // Confirmed within the window; entry removed
)

func (o DeleteOutcome) String() string {
	if o == DeleteCommitted {
		return "committed"
	}
	return "armed"
}

// ReorderBubble moves the bubble entry at from to to and persists the new
// order in one write.
func (e *Engine) ReorderBubble(ctx context.Context, from, to int) ([]provider.Provider, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := reorder.BeginBubble(ctx, e.store)
	if err != nil {
		return nil, err
	}
	tx.Move(from, to)
	if _, err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return tx.List(), nil
}

// ReorderGroup moves the panel group at from to to and persists only the
// group order.
func (e *Engine) ReorderGroup(ctx context.Context, from, to int) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := reorder.BeginGroup(ctx, e.store)
	if err != nil {
		return nil, err
	}
	tx.Move(from, to)
	return tx.Commit(ctx)
}

// AddRemote installs a provider from the remote catalog at the front of the
// local list. Adding an id that is already present returns the existing
// entry without writing. A usage notification is sent in the background.
func (e *Engine) AddRemote(ctx context.Context, rp remote.Provider) (provider.Provider, error) {
	if rp.ProviderID <= 0 {
		return provider.Provider{}, fmt.Errorf("remote provider %q has no id", rp.Label)
	}

	var (
		added   provider.Provider
		existed bool
	)
	err := e.mutate(ctx, func(list []provider.Provider) ([]provider.Provider, error) {
		if i := provider.Index(list, rp.ProviderID); i >= 0 {
			added, existed = list[i], true
			return nil, errSkipWrite
		}
		added = rp.ToLocal(e.opts.RemoteAddBubble, e.opts.RemoteAddPanel)
		return append([]provider.Provider{added}, list...), nil
	})
	if err != nil && !errors.Is(err, errSkipWrite) {
		return provider.Provider{}, err
	}
	if existed {
		return added, nil
	}

	e.logger.Info("added remote provider", "provider_id", rp.ProviderID, "label", rp.Label)
	if e.remote != nil {
		e.notify("use", rp.ProviderID, e.remote.Use)
	}
	return added, nil
}

// Delete is the guarded delete control: the first activation arms it and a
// second activation within the confirm window removes the entry.
func (e *Engine) Delete(ctx context.Context, id int64) (DeleteOutcome, error) {
	control := "delete:" + strconv.FormatInt(id, 10)
	if e.guard.Activate(control) == dispatch.DecisionWarn {
		providers, err := e.store.Providers(ctx)
		if err == nil && provider.Index(providers, id) < 0 {
			err = fmt.Errorf("%w: %d", ErrUnknownProvider, id)
		}
		if err != nil {
			e.guard.Disarm(control)
			return DeleteArmed, err
		}
		return DeleteArmed, nil
	}
	if err := e.Remove(ctx, id); err != nil {
		return DeleteArmed, err
	}
	return DeleteCommitted, nil
}

// ConfirmWindow is how soon a second delete activation must follow the first.
func (e *Engine) ConfirmWindow() time.Duration { return e.guard.Window() }

// Remove deletes the entry with the given id without confirmation.
// Entries that came from the remote catalog trigger an obsolete
// notification in the background.
func (e *Engine) Remove(ctx context.Context, id int64) error {
	err := e.mutate(ctx, func(list []provider.Provider) ([]provider.Provider, error) {
		i := provider.Index(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %d", ErrUnknownProvider, id)
		}
		out := make([]provider.Provider, 0, len(list)-1)
		out = append(out, list[:i]...)
		return append(out, list[i+1:]...), nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("removed provider", "provider_id", id)
	if e.remote != nil && provider.IsRemoteID(id) {
		e.notify("obsolete", id, e.remote.Obsolete)
	}
	return nil
}

// UpdateProvider applies updates to one entry and persists the catalog.
func (e *Engine) UpdateProvider(ctx context.Context, id int64, updates ...provider.Update) (provider.Provider, error) {
	var updated provider.Provider
	err := e.mutate(ctx, func(list []provider.Provider) ([]provider.Provider, error) {
		i := provider.Index(list, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %d", ErrUnknownProvider, id)
		}
		p, err := provider.Apply(list[i], updates...)
		if err != nil {
			return nil, err
		}
		out := provider.CloneAll(list)
		out[i] = p
		updated = p
		return out, nil
	})
	return updated, err
}

// CreateEmpty prepends a blank search entry and returns it.
func (e *Engine) CreateEmpty(ctx context.Context) (provider.Provider, error) {
	p := provider.NewEmpty()
	err := e.mutate(ctx, func(list []provider.Provider) ([]provider.Provider, error) {
		return append([]provider.Provider{p}, list...), nil
	})
	return p, err
}

// SetProviders replaces the whole catalog, as an import does.
func (e *Engine) SetProviders(ctx context.Context, list []provider.Provider) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.SetProviders(ctx, list)
}

// Publish submits a local search entry to the remote catalog and adopts the
// id the service assigns.
func (e *Engine) Publish(ctx context.Context, id int64) (provider.Provider, error) {
	if e.remote == nil {
		return provider.Provider{}, ErrNoRemote
	}
	if !provider.IsLocalID(id) {
		return provider.Provider{}, fmt.Errorf("%w: %d", ErrAlreadyPublished, id)
	}

	providers, err := e.store.Providers(ctx)
	if err != nil {
		return provider.Provider{}, err
	}
	i := provider.Index(providers, id)
	if i < 0 {
		return provider.Provider{}, fmt.Errorf("%w: %d", ErrUnknownProvider, id)
	}

	published, err := e.remote.Publish(ctx, providers[i])
	if err != nil {
		return provider.Provider{}, fmt.Errorf("publish %q: %w", providers[i].Label, err)
	}

	var adopted provider.Provider
	err = e.mutate(ctx, func(list []provider.Provider) ([]provider.Provider, error) {
		j := provider.Index(list, id)
		if j < 0 {
			return nil, fmt.Errorf("%w: %d", ErrUnknownProvider, id)
		}
		out := provider.CloneAll(list)
		out[j].ProviderID = published.ProviderID
		adopted = out[j]
		return out, nil
	})
	if err != nil {
		return provider.Provider{}, err
	}
	e.logger.Info("published provider", "local_id", id, "provider_id", published.ProviderID)
	return adopted, nil
}

// Seed fills an empty catalog with the built-in entries and the remote
// catalog's starting set. A non-empty catalog is left untouched. When the
// remote catalog fails the built-ins are still written and the error is
// returned.
func (e *Engine) Seed(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.store.Providers(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	list := provider.Builtins()
	var remoteErr error
	if e.remote != nil {
		initial, err := e.seedSet(ctx)
		if err != nil {
			remoteErr = fmt.Errorf("fetch starting catalog: %w", err)
		}
		for _, rp := range initial {
			if provider.Index(list, rp.ProviderID) >= 0 {
				continue
			}
			list = append(list, rp.ToLocal(true, true))
		}
	}

	if err := e.store.SetProviders(ctx, list); err != nil {
		return 0, err
	}
	e.logger.Info("seeded catalog", "count", len(list), "remote_error", remoteErr)
	return len(list), remoteErr
}

// seedSet returns the curated starting list, falling back to the first page
// of popular entries when the service has none.
func (e *Engine) seedSet(ctx context.Context) ([]remote.Provider, error) {
	initial, err := e.remote.Initial(ctx)
	if err == nil && len(initial) > 0 {
		return initial, nil
	}
	page, perr := e.remote.Search(ctx, remote.Query{Page: 1, PageSize: e.opts.SeedPageSize})
	if perr != nil {
		if err != nil {
			return nil, errors.Join(err, perr)
		}
		return nil, perr
	}
	return page.Providers, nil
}

// errSkipWrite aborts a mutate without writing.
var errSkipWrite = errors.New("skip write")
