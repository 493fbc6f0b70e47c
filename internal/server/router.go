// Package server wires the HTTP surface described in spec.md §5's
// route table onto net/http's Go 1.22+ method-and-wildcard ServeMux,
// following the plain stdlib-routing style of the teacher's
// examples/gittyup/main.go rather than introducing a router framework.
package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/rybkr/gitphantom/internal/apperr"
	"github.com/rybkr/gitphantom/internal/auth"
	"github.com/rybkr/gitphantom/internal/broker"
	"github.com/rybkr/gitphantom/internal/logging"
	"github.com/rybkr/gitphantom/internal/oauth2gh"
	"github.com/rybkr/gitphantom/internal/types"
)

// Deps bundles everything the router needs to build handlers. The router
// never names a concrete store/notify type: main.go builds those and hands
// them in through Resolver and the broker/oauth2gh handler values.
type Deps struct {
	Resolver auth.Resolver
	Owner    *broker.Owner
	Guest    *broker.Guest
	GitHub   *oauth2gh.Handler
}

var upgrader = websocket.Upgrader{
	// Git CLI traffic (and the relay CLI) is never browser-originated, so
	// there's no cross-site cookie/credential surface to police here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// New builds the relay's top-level handler.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /oauth2/auth", d.GitHub.Auth)
	mux.HandleFunc("PUT /oauth2/register", d.GitHub.Register)

	mux.HandleFunc("GET /user_id", auth.RequireBearer(d.Resolver, handleUserID))
	mux.HandleFunc("GET /share", auth.RequireBearer(d.Resolver, d.handleShare))

	mux.HandleFunc("GET /git/{user_id}/{path...}", d.Guest.ServeHTTP)
	mux.HandleFunc("POST /git/{user_id}/{path...}", d.Guest.ServeHTTP)

	return mux
}

func handleUserID(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		apperr.WriteHTTP(w, apperr.New(apperr.KindRequiredSessionToken), nil)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(formatUserID(userID)))
}

// handleShare upgrades the connection and runs the owner session to
// completion. The room-already-open conflict (spec.md's resolved Open
// Question: only one owner session per user at a time) is enforced here,
// before the handshake, so a rejected caller never pays for an upgrade.
func (d Deps) handleShare(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		apperr.WriteHTTP(w, apperr.New(apperr.KindRequiredSessionToken), nil)
		return
	}

	if isOpen, _ := d.Owner.Rooms.IsOpen(r.Context(), userID); isOpen {
		apperr.WriteHTTP(w, apperr.New(apperr.KindRoomAlreadyOpen), nil)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn(r.Context(), "websocket upgrade failed")
		return
	}

	if err := d.Owner.Serve(r.Context(), conn, userID); err != nil {
		logging.Warn(r.Context(), "owner session ended with error")
	}
}

func formatUserID(id types.UserID) string {
	return strconv.FormatInt(int64(id), 10)
}
