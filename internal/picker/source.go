package picker

import (
	"context"

	"github.com/runger/selact/internal/provider"
	"github.com/runger/selact/internal/remote"
)

// Source supplies pages of the remote catalog. *remote.Client satisfies it.
type Source interface {
	Search(ctx context.Context, q remote.Query) (remote.Page, error)
}

// Catalog is the local side of the browser: which remote ids are already
// installed, and how a chosen remote entry is added.
type Catalog interface {
	OwnedIDs(ctx context.Context) (map[int64]bool, error)
	AddRemote(ctx context.Context, rp remote.Provider) (provider.Provider, error)
}
