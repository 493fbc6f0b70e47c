package store

import (
	"context"

	"github.com/rybkr/gitphantom/internal/apperr"
	"github.com/rybkr/gitphantom/internal/types"
)

// Rooms implements the room registry (C2): the per-user "is open" flag
// gating guest traffic. Grounded on original_source/src/db/rooms.rs.
type Rooms struct {
	DB Queryer
}

func (r *Rooms) SetOpen(ctx context.Context, userID types.UserID, isOpen bool) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO rooms(user_id, is_open) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET is_open = $2
	`, int64(userID), isOpen)
	if err != nil {
		return apperr.StoreIO(err)
	}
	return nil
}

func (r *Rooms) IsOpen(ctx context.Context, userID types.UserID) (bool, error) {
	row := r.DB.QueryRow(ctx, `SELECT is_open FROM rooms WHERE user_id = $1`, int64(userID))

	var isOpen bool
	if err := row.Scan(&isOpen); err != nil {
		if isNoRows(err) {
			return false, apperr.New(apperr.KindUserRoomIsNotOpen)
		}
		return false, apperr.StoreIO(err)
	}
	return isOpen, nil
}

// CloseAll forces every room closed. Called once at process startup to
// repair the "is_open=true with no live owner" inconsistency spec.md §3
// calls out: a relay that crashed mid owner-session would otherwise strand
// a room open with nobody able to flip it back (multi-owner-session is a
// Non-goal, so there's no other recovery path).
func (r *Rooms) CloseAll(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, `UPDATE rooms SET is_open = false WHERE is_open = true`)
	if err != nil {
		return apperr.StoreIO(err)
	}
	return nil
}
