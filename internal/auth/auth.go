// Package auth implements the authentication extractor (C8): parsing a
// Bearer session token, resolving it via the identity store, and attaching
// the resulting user id to the request context. Grounded on the teacher's
// plain net/http handler style (no router framework is introduced) and
// original_source/src/middleware/{user_id,session_token}.rs's contract.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rybkr/gitphantom/internal/apperr"
	"github.com/rybkr/gitphantom/internal/logging"
	"github.com/rybkr/gitphantom/internal/types"
)

type Resolver interface {
	Resolve(ctx context.Context, token types.SessionToken) (types.UserID, error)
}

type contextKey struct{}

// FromRequest extracts and resolves the bearer token on request, without
// wrapping it as middleware and without storing the result in the
// context; RequireBearer builds on it.
func FromRequest(ctx context.Context, r *http.Request, resolver Resolver) (types.UserID, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return 0, apperr.New(apperr.KindRequiredSessionToken)
	}

	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return 0, apperr.New(apperr.KindRequiredSessionToken)
	}

	token, err := types.ParseSessionToken(tokenStr)
	if err != nil {
		return 0, apperr.New(apperr.KindInvalidSessionToken)
	}

	return resolver.Resolve(ctx, token)
}

// RequireBearer wraps next with bearer-token authentication, storing the
// resolved UserID in the request context for handlers to read via
// UserIDFromContext.
func RequireBearer(resolver Resolver, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := FromRequest(r.Context(), r, resolver)
		if err != nil {
			apperr.WriteHTTP(w, err, func(format string, args ...any) {
				logging.Error(r.Context(), fmt.Sprintf(format, args...))
			})
			return
		}
		next(w, r.WithContext(withUserID(r.Context(), userID)))
	}
}

func withUserID(ctx context.Context, userID types.UserID) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserIDFromContext returns the user id attached by RequireBearer.
func UserIDFromContext(ctx context.Context) (types.UserID, bool) {
	userID, ok := ctx.Value(contextKey{}).(types.UserID)
	return userID, ok
}
