package client

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Invalidation keys
const RoomsKey = "rooms"

// MessagesKey is the invalidation key for a room's message list
func MessagesKey(roomID string) string { return "messages:" + roomID }

// RoomKey is the invalidation key for a room's detail
func RoomKey(roomID string) string { return "room:" + roomID }

// Invalidator coalesces refetch requests. A key that is already pending is not scheduled again,
// and scheduled refetches are spaced out by a token bucket.
type Invalidator struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	pending map[string]bool
}

// NewInvalidator allows one refetch per interval with the given burst
func NewInvalidator(interval time.Duration, burst int) *Invalidator {
	if burst < 1 {
		burst = 1
	}
	return &Invalidator{
		limiter: rate.NewLimiter(rate.Every(interval), burst),
		pending: make(map[string]bool),
	}
}

// Schedule marks key as pending and returns how long to wait before refetching.
// ok is false when a refetch for key is already pending.
func (i *Invalidator) Schedule(key string) (delay time.Duration, ok bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.pending[key] {
		return 0, false
	}
	i.pending[key] = true
	return i.limiter.Reserve().Delay(), true
}

// Done clears the pending mark once the refetch has been issued
func (i *Invalidator) Done(key string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.pending, key)
}

// Pending reports whether a refetch for key is waiting
func (i *Invalidator) Pending(key string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pending[key]
}
