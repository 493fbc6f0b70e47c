package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rybkr/gitphantom/internal/apperr"
	"github.com/rybkr/gitphantom/internal/broker"
	"github.com/rybkr/gitphantom/internal/notify"
	"github.com/rybkr/gitphantom/internal/oauth2gh"
	"github.com/rybkr/gitphantom/internal/types"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	token types.SessionToken
	user  types.UserID
}

func (f fakeResolver) Resolve(ctx context.Context, token types.SessionToken) (types.UserID, error) {
	if token == f.token {
		return f.user, nil
	}
	return 0, apperr.New(apperr.KindInvalidSessionToken)
}

type fakeRooms struct{ open bool }

func (r *fakeRooms) SetOpen(ctx context.Context, userID types.UserID, isOpen bool) error {
	r.open = isOpen
	return nil
}
func (r *fakeRooms) IsOpen(ctx context.Context, userID types.UserID) (bool, error) {
	return r.open, nil
}

type fakeRequests struct{}

func (r *fakeRequests) New(ctx context.Context, body []byte) (types.RequestID, error) {
	return types.NewRequestID(), nil
}
func (r *fakeRequests) RequestBody(ctx context.Context, id types.RequestID) ([]byte, error) {
	return nil, apperr.New(apperr.KindFailedRecvGitResponse)
}
func (r *fakeRequests) SetResponse(ctx context.Context, id types.RequestID, output []byte) error {
	return nil
}
func (r *fakeRequests) TakeResponse(ctx context.Context, id types.RequestID) ([]byte, error) {
	return nil, apperr.New(apperr.KindFailedRecvGitResponse)
}
func (r *fakeRequests) Delete(ctx context.Context, id types.RequestID) {}

func testDeps(token types.SessionToken, user types.UserID, roomOpen bool) Deps {
	resolver := fakeResolver{token: token, user: user}
	rooms := &fakeRooms{open: roomOpen}
	requests := &fakeRequests{}
	bus := notify.NewMemoryBus()
	return Deps{
		Resolver: resolver,
		Owner:    &broker.Owner{Rooms: rooms, Requests: requests, Bus: bus},
		Guest:    &broker.Guest{Rooms: rooms, Requests: requests, Bus: bus},
		GitHub:   &oauth2gh.Handler{},
	}
}

func TestRouter_UserID_RequiresBearer(t *testing.T) {
	handler := New(testDeps(types.SessionToken(uuid.New()), types.UserID(1), false))

	req := httptest.NewRequest(http.MethodGet, "/user_id", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_UserID_ValidBearer(t *testing.T) {
	token := types.SessionToken(uuid.New())
	handler := New(testDeps(token, types.UserID(42), false))

	req := httptest.NewRequest(http.MethodGet, "/user_id", nil)
	req.Header.Set("Authorization", "Bearer "+token.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "42", rec.Body.String())
}

func TestRouter_Git_ClosedRoom(t *testing.T) {
	handler := New(testDeps(types.SessionToken(uuid.New()), types.UserID(1), false))

	req := httptest.NewRequest(http.MethodGet, "/git/1/info/refs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_OAuth2Auth_Redirects(t *testing.T) {
	handler := New(testDeps(types.SessionToken(uuid.New()), types.UserID(1), false))

	req := httptest.NewRequest(http.MethodGet, "/oauth2/auth", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
}
