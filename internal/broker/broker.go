// Package broker implements the owner session (C5) and guest handler (C6):
// the two sides of the request-relay broker that spec.md §2 identifies as
// the hard part of this system. Both depend only on the store and notify
// interfaces, so they're exercised in tests against MemoryBus and an
// in-memory store fake rather than a live Postgres.
package broker

import (
	"context"

	"github.com/rybkr/gitphantom/internal/types"
)

// ChannelOwner carries RequestNotify JSON; consumers filter by To == self.
const ChannelOwner = "owner"

// ChannelGuest carries the textual request id whose response is ready.
const ChannelGuest = "guest"

// RoomRegistry is the subset of store.Rooms the broker needs.
type RoomRegistry interface {
	SetOpen(ctx context.Context, userID types.UserID, isOpen bool) error
	IsOpen(ctx context.Context, userID types.UserID) (bool, error)
}

// RequestStore is the subset of store.Requests the broker needs.
type RequestStore interface {
	New(ctx context.Context, body []byte) (types.RequestID, error)
	RequestBody(ctx context.Context, id types.RequestID) ([]byte, error)
	SetResponse(ctx context.Context, id types.RequestID, output []byte) error
	TakeResponse(ctx context.Context, id types.RequestID) ([]byte, error)
	Delete(ctx context.Context, id types.RequestID)
}
