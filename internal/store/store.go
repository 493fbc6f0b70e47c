// Package store implements the identity store (C1), room registry (C2),
// and request store (C3) against PostgreSQL via jackc/pgx/v5. Every table
// method takes a narrow Queryer interface rather than a concrete
// *pgxpool.Pool so tests can substitute an in-memory fake (see
// fake_pool_test.go), the way RoseWrightdev-Video-Conferencing's bus layer is
// tested against miniredis instead of a live Redis.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Queryer is the subset of *pgxpool.Pool (and *pgx.Conn, *pgx.Tx) that the
// store layer needs. *pgxpool.Pool satisfies this natively.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrNoResponse is returned by Requests.TakeResponse when the row is
// missing or its response column is still NULL — the guest handler
// translates this into apperr.KindFailedRecvGitResponse.
var ErrNoResponse = errors.New("no response available for request")

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
