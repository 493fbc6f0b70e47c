package broker

import (
	"context"
	"sync"

	"github.com/rybkr/gitphantom/internal/store"
	"github.com/rybkr/gitphantom/internal/types"
)

// fakeRooms and fakeRequests are minimal in-memory stand-ins for
// store.Rooms/store.Requests, exercising the same RoomRegistry/RequestStore
// contracts the production pgx-backed types satisfy.

type fakeRooms struct {
	mu   sync.Mutex
	open map[types.UserID]bool
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{open: make(map[types.UserID]bool)}
}

func (r *fakeRooms) SetOpen(ctx context.Context, userID types.UserID, isOpen bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open[userID] = isOpen
	return nil
}

func (r *fakeRooms) IsOpen(ctx context.Context, userID types.UserID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open[userID], nil
}

type fakeRequests struct {
	mu        sync.Mutex
	bodies    map[types.RequestID][]byte
	responses map[types.RequestID][]byte
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{
		bodies:    make(map[types.RequestID][]byte),
		responses: make(map[types.RequestID][]byte),
	}
}

func (r *fakeRequests) New(ctx context.Context, body []byte) (types.RequestID, error) {
	id := types.NewRequestID()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies[id] = body
	return id, nil
}

func (r *fakeRequests) RequestBody(ctx context.Context, id types.RequestID) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	body, ok := r.bodies[id]
	if !ok {
		return nil, store.ErrNoResponse
	}
	return body, nil
}

func (r *fakeRequests) SetResponse(ctx context.Context, id types.RequestID, output []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bodies[id]; !ok {
		return nil
	}
	r.responses[id] = output
	return nil
}

func (r *fakeRequests) TakeResponse(ctx context.Context, id types.RequestID) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	output, ok := r.responses[id]
	if !ok {
		return nil, store.ErrNoResponse
	}
	delete(r.responses, id)
	delete(r.bodies, id)
	return output, nil
}

func (r *fakeRequests) Delete(ctx context.Context, id types.RequestID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bodies, id)
	delete(r.responses, id)
}
