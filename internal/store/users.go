package store

import (
	"context"

	"github.com/rybkr/gitphantom/internal/apperr"
	"github.com/rybkr/gitphantom/internal/types"
)

// Users implements the identity store (C1): session tokens ↔ user ids.
type Users struct {
	DB Queryer
}

// Register upserts userID, rotating its session token whether the row is
// new or already exists, and returns the current token. Grounded on
// original_source/src/db/users.rs's insert_into_users.
func (u *Users) Register(ctx context.Context, userID types.UserID) (types.SessionToken, error) {
	row := u.DB.QueryRow(ctx, `
		INSERT INTO users(user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET session_token = gen_random_uuid(), created_at = CURRENT_TIMESTAMP
		RETURNING session_token
	`, int64(userID))

	var tokenStr string
	if err := row.Scan(&tokenStr); err != nil {
		return types.SessionToken{}, apperr.StoreIO(err)
	}
	token, err := types.ParseSessionToken(tokenStr)
	if err != nil {
		return types.SessionToken{}, apperr.StoreIO(err)
	}
	return token, nil
}

// Resolve looks up the user id bound to a session token.
func (u *Users) Resolve(ctx context.Context, token types.SessionToken) (types.UserID, error) {
	row := u.DB.QueryRow(ctx, `SELECT user_id FROM users WHERE session_token = $1`, token.String())

	var userID int64
	if err := row.Scan(&userID); err != nil {
		if isNoRows(err) {
			return 0, apperr.New(apperr.KindInvalidSessionToken)
		}
		return 0, apperr.StoreIO(err)
	}
	return types.UserID(userID), nil
}
