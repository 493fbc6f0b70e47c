package notify

import (
	"context"
	"sync"
)

// MemoryBus is an in-process fan-out Bus used by tests in place of
// PGBus. It preserves the same best-effort, drop-if-full contract
// (spec.md §4.4) rather than blocking a slow publisher, mirroring the
// teacher's hotel.Client.send "buffer full ⇒ disconnect" policy.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string][]chan string
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]chan string)}
}

func (b *MemoryBus) Publish(ctx context.Context, channel, payload string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[channel] {
		select {
		case ch <- payload:
		default:
			// Subscriber is behind; NOTIFY is best-effort, drop it.
		}
	}
	return nil
}

func (b *MemoryBus) Listen(ctx context.Context, channel string) (*Subscription, error) {
	b.mu.Lock()
	ch := make(chan string, 64)
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	closer := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[channel]
		for i, c := range subs {
			if c == ch {
				b.subs[channel] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}

	return &Subscription{ch: ch, closer: closer}, nil
}
