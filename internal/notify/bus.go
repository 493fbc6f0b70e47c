// Package notify implements the notification bus (C4): two named pub/sub
// channels ("owner" and "guest") with at-most-once, best-effort,
// fan-out-to-all-subscribers delivery. The production implementation rides
// Postgres LISTEN/NOTIFY through jackc/pgx/v5's pgxpool; a MemoryBus stands
// in for tests, grounded on the teacher's hotel.Client buffering policy
// (drop/disconnect rather than block when a subscriber falls behind).
package notify

import "context"

// Bus is the notification fan-out contract both C5 (owner session) and C6
// (guest handler) depend on. Implementations must open an independent
// subscription per Listen call — never share one across callers, per
// spec.md §4.4/§9's "listener-per-subscriber" rule.
type Bus interface {
	Publish(ctx context.Context, channel, payload string) error
	Listen(ctx context.Context, channel string) (*Subscription, error)
}

// Subscription delivers payloads published to one channel after the
// subscription was established. Messages published before Listen
// acknowledged its subscription are never seen — callers relying on the
// "subscribe before publish" ordering rule (spec.md §4.6) must wait for
// Listen to return before publishing.
type Subscription struct {
	ch     <-chan string
	closer func()
}

// Recv blocks until a payload arrives, ctx is done, or the subscription is
// closed (in which case ok is false).
func (s *Subscription) Recv(ctx context.Context) (payload string, ok bool) {
	select {
	case payload, ok = <-s.ch:
		return payload, ok
	case <-ctx.Done():
		return "", false
	}
}

func (s *Subscription) Close() {
	if s.closer != nil {
		s.closer()
	}
}
