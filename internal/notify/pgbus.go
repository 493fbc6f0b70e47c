package notify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rybkr/gitphantom/internal/logging"
	"go.uber.org/zap"
)

// PGBus is the production Bus, backed by Postgres LISTEN/NOTIFY. Every
// Listen call acquires its own dedicated connection from the pool (pub/sub
// listening requires holding a connection for the session's lifetime,
// which is why it can't share the pool's normal query path) and tears it
// down on Close — guest requests are short-lived, so a fresh listener per
// request is the only safe granularity (spec.md §9).
type PGBus struct {
	Pool *pgxpool.Pool
}

func NewPGBus(pool *pgxpool.Pool) *PGBus {
	return &PGBus{Pool: pool}
}

func (b *PGBus) Publish(ctx context.Context, channel, payload string) error {
	_, err := b.Pool.Exec(ctx, `SELECT pg_notify($1, $2)`, channel, payload)
	if err != nil {
		return fmt.Errorf("notify: publish to %q: %w", channel, err)
	}
	return nil
}

func (b *PGBus) Listen(ctx context.Context, channel string) (*Subscription, error) {
	conn, err := b.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("notify: acquire connection for %q: %w", channel, err)
	}

	if _, err := conn.Exec(ctx, "LISTEN \""+channel+"\""); err != nil {
		conn.Release()
		return nil, fmt.Errorf("notify: listen on %q: %w", channel, err)
	}

	out := make(chan string, 64)
	pumpCtx, cancel := context.WithCancel(context.Background())

	go func() {
		defer close(out)
		defer conn.Release()
		for {
			n, err := conn.Conn().WaitForNotification(pumpCtx)
			if err != nil {
				if pumpCtx.Err() == nil {
					logging.Warn(ctx, "notify: listener terminated", zap.Error(err))
				}
				return
			}
			select {
			case out <- n.Payload:
			case <-pumpCtx.Done():
				return
			}
		}
	}()

	return &Subscription{ch: out, closer: cancel}, nil
}
