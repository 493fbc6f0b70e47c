package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rybkr/gitphantom/internal/logging"
	"github.com/rybkr/gitphantom/internal/notify"
	"github.com/rybkr/gitphantom/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// errSessionEnded is substituted for a nil return from either of the
// owner session's two tasks so errgroup.Group's shared context is
// cancelled the instant EITHER task finishes — success or failure alike.
// This is the "first-completed-wins" race spec.md §9 calls for, built on
// top of the teacher's errgroup usage in hotel/room.go (which races an
// init goroutine against the room's context) rather than plain channels.
var errSessionEnded = errors.New("owner session ended")

// WebSocketConn is the subset of *websocket.Conn the owner session needs,
// narrow enough to fake in tests without a real network connection.
type WebSocketConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// Owner drives the owner session state machine of spec.md §4.5.
type Owner struct {
	Rooms    RoomRegistry
	Requests RequestStore
	Bus      notify.Bus
}

// Serve runs the session to completion: it blocks until the websocket
// closes or a listener fails, always leaving the room closed on exit.
func (o *Owner) Serve(ctx context.Context, conn WebSocketConn, userID types.UserID) error {
	if err := o.Rooms.SetOpen(ctx, userID, true); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return terminal(o.forward(gctx, conn, userID))
	})
	g.Go(func() error {
		return terminal(o.consume(gctx, conn))
	})

	err := g.Wait()

	// Close path runs unconditionally, even if the forwarder faulted —
	// log and swallow per spec.md §4.5's failure policy.
	if closeErr := o.Rooms.SetOpen(context.Background(), userID, false); closeErr != nil {
		logging.Error(ctx, "failed to close room on session exit",
			zap.Int64("user_id", int64(userID)), zap.Error(closeErr))
	}
	if closeErr := conn.Close(); closeErr != nil {
		logging.Error(ctx, "failed to close websocket on session exit",
			zap.Int64("user_id", int64(userID)), zap.Error(closeErr))
	}

	if errors.Is(err, errSessionEnded) {
		return nil
	}
	return err
}

func terminal(err error) error {
	if err == nil {
		return errSessionEnded
	}
	return err
}

// forward subscribes to the owner channel and writes every RequestNotify
// addressed to userID over the websocket as a GitRequest frame. Websocket
// sends are serialized by construction: this is the only goroutine that
// writes to conn.
func (o *Owner) forward(ctx context.Context, conn WebSocketConn, userID types.UserID) error {
	sub, err := o.Bus.Listen(ctx, ChannelOwner)
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		payload, ok := sub.Recv(ctx)
		if !ok {
			return ctx.Err()
		}

		var n types.RequestNotify
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			continue
		}
		if n.To != userID {
			continue
		}

		body, err := o.Requests.RequestBody(ctx, n.ID)
		if err != nil {
			// The row vanished (reaped or never existed for us); the
			// notify is dropped silently per spec.md §4.5.
			continue
		}

		encoded, err := json.Marshal(n.ToGitRequest(body))
		if err != nil {
			logging.Error(ctx, "failed to marshal git request", zap.Error(err))
			continue
		}

		if err := conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
			return err
		}
	}
}

// consume reads GitResponse frames from the websocket, writes the response
// into the request store, and publishes a guest notification. Malformed
// frames are skipped, not fatal, per spec.md §4.5.
func (o *Owner) consume(ctx context.Context, conn WebSocketConn) error {
	// ReadMessage blocks on the network and won't observe ctx
	// cancellation on its own; force it to return by yanking the read
	// deadline the instant the sibling forwarder task ends.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var resp types.GitResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			continue
		}

		if err := o.Requests.SetResponse(ctx, resp.ID, resp.Output); err != nil {
			logging.Error(ctx, "failed to store git response", zap.Error(err))
			continue
		}
		if err := o.Bus.Publish(ctx, ChannelGuest, resp.ID.String()); err != nil {
			logging.Error(ctx, "failed to publish guest notify", zap.Error(err))
		}
	}
}
