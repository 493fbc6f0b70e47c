package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rybkr/gitphantom/internal/apperr"
	"github.com/rybkr/gitphantom/internal/cgi"
	"github.com/rybkr/gitphantom/internal/logging"
	"github.com/rybkr/gitphantom/internal/notify"
	"github.com/rybkr/gitphantom/internal/store"
	"github.com/rybkr/gitphantom/internal/types"
)

// DefaultTimeout bounds how long a guest request waits for an owner
// response before giving up, per spec.md §5's 30-60s guidance.
const DefaultTimeout = 45 * time.Second

// Guest implements the guest handler (C6): the HTTP-facing half of the
// broker, driving the algorithm in spec.md §4.6 step by step.
type Guest struct {
	Rooms    RoomRegistry
	Requests RequestStore
	Bus      notify.Bus
	Timeout  time.Duration
}

func (g *Guest) timeout() time.Duration {
	if g.Timeout > 0 {
		return g.Timeout
	}
	return DefaultTimeout
}

func (g *Guest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := parseUserID(r.PathValue("user_id"))
	if err != nil {
		apperr.WriteHTTP(w, apperr.New(apperr.KindUserRoomIsNotOpen), logf(ctx))
		return
	}
	pathInfo := r.PathValue("path")

	if isOpen, err := g.Rooms.IsOpen(ctx, userID); err != nil || !isOpen {
		apperr.WriteHTTP(w, apperr.New(apperr.KindUserRoomIsNotOpen), logf(ctx))
		return
	}

	resp, err := g.relay(ctx, userID, pathInfo, r)
	if err != nil {
		apperr.WriteHTTP(w, err, logf(ctx))
		return
	}

	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// relay implements steps 3-9 of spec.md §4.6.
func (g *Guest) relay(ctx context.Context, userID types.UserID, pathInfo string, r *http.Request) (*cgi.Response, error) {
	notifyMsg := types.RequestNotify{
		To:            userID,
		PathInfo:      pathInfo,
		RequestMethod: r.Method,
	}
	if q := r.URL.RawQuery; q != "" {
		notifyMsg.QueryString = &q
	}
	if cl := r.Header.Get("Content-Length"); cl != "" {
		notifyMsg.ContentLength = &cl
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		notifyMsg.ContentType = &ct
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindFailedParseRequestBody, err)
	}

	requestID, err := g.Requests.New(ctx, body)
	if err != nil {
		return nil, err
	}
	notifyMsg.ID = requestID

	// The listener MUST be established before the NOTIFY publish below —
	// spec.md §4.6's ordering invariant, violating it opens a lost-
	// notification window between publish and subscribe.
	sub, err := g.Bus.Listen(ctx, ChannelGuest)
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	encoded, err := json.Marshal(notifyMsg)
	if err != nil {
		return nil, apperr.StoreIO(err)
	}
	if err := g.Bus.Publish(ctx, ChannelOwner, string(encoded)); err != nil {
		return nil, err
	}

	if err := g.awaitResponse(ctx, sub, requestID); err != nil {
		return nil, err
	}

	output, err := g.Requests.TakeResponse(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNoResponse) {
			return nil, apperr.New(apperr.KindFailedRecvGitResponse)
		}
		return nil, err
	}

	return cgi.Parse(output)
}

// awaitResponse blocks until a "guest" notification matching requestID
// arrives or the bounded deadline expires. The request row is the
// authoritative state (spec.md §4.4) — this only waits for the signal
// that it's worth re-reading the store.
func (g *Guest) awaitResponse(ctx context.Context, sub *notify.Subscription, requestID types.RequestID) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.timeout())
	defer cancel()

	want := requestID.String()
	for {
		payload, ok := sub.Recv(waitCtx)
		if !ok {
			g.Requests.Delete(context.Background(), requestID)
			return apperr.New(apperr.KindFailedRecvGitResponse)
		}
		if payload == want {
			return nil
		}
		// Notifications for other in-flight requests on the same
		// channel are expected and ignored.
	}
}

func parseUserID(s string) (types.UserID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return types.UserID(n), nil
}

func logf(ctx context.Context) func(string, ...any) {
	return func(format string, args ...any) {
		logging.Error(ctx, fmt.Sprintf(format, args...))
	}
}
