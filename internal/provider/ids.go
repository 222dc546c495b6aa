package provider

import (
	"sync/atomic"
	"time"
)

// Local IDs are negative so they never collide with remote-assigned IDs,
// which are positive. Zero means the record predates IDs.
var lastLocalID atomic.Int64

// NewLocalID returns a fresh placeholder ID for a provider that has not been
// published. IDs are strictly decreasing within a process and derived from the
// clock so they stay unique across restarts.
func NewLocalID() int64 {
	for {
		prev := lastLocalID.Load()
		next := -time.Now().UnixMicro()
		if prev != 0 && next >= prev {
			next = prev - 1
		}
		if lastLocalID.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// IsLocalID reports whether id is a locally generated placeholder.
func IsLocalID(id int64) bool { return id < 0 }

// IsRemoteID reports whether id was assigned by the remote catalog.
func IsRemoteID(id int64) bool { return id > 0 }
