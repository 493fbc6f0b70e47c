package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakePool is a hand-rolled, in-memory stand-in for *pgxpool.Pool good
// enough to exercise the store layer's SQL-shaped contracts (upsert,
// delete-returning, no-rows-as-sentinel-error) without a live Postgres,
// the same spirit as RoseWrightdev-Video-Conferencing testing its Redis
// bus layer against miniredis instead of a real Redis server.
type fakePool struct {
	mu sync.Mutex

	users map[int64]string // user_id -> session_token

	rooms map[int64]bool // user_id -> is_open

	requests map[string]*fakeRequestRow
}

type fakeRequestRow struct {
	body     []byte
	response []byte
	hasResp  bool
}

func newFakePool() *fakePool {
	return &fakePool{
		users:    make(map[int64]string),
		rooms:    make(map[int64]bool),
		requests: make(map[string]*fakeRequestRow),
	}
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		if i >= len(r.values) {
			break
		}
		switch ptr := d.(type) {
		case *string:
			*ptr = r.values[i].(string)
		case *bool:
			*ptr = r.values[i].(bool)
		case *int64:
			*ptr = r.values[i].(int64)
		case *[]byte:
			if r.values[i] == nil {
				*ptr = nil
			} else {
				*ptr = r.values[i].([]byte)
			}
		}
	}
	return nil
}

func (p *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case strings.Contains(sql, "INSERT INTO rooms"):
		userID := args[0].(int64)
		isOpen := args[1].(bool)
		p.rooms[userID] = isOpen
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.Contains(sql, "UPDATE rooms SET is_open = false"):
		for id, open := range p.rooms {
			if open {
				p.rooms[id] = false
			}
		}
		return pgconn.NewCommandTag("UPDATE 0"), nil
	case strings.Contains(sql, "UPDATE requests SET response"):
		output := args[0].([]byte)
		id := args[1].(string)
		if row, ok := p.requests[id]; ok {
			row.response = output
			row.hasResp = true
		}
		return pgconn.NewCommandTag("UPDATE 1"), nil
	case strings.Contains(sql, "DELETE FROM requests"):
		id := args[0].(string)
		delete(p.requests, id)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.CommandTag{}, nil
}

func (p *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case strings.Contains(sql, "INSERT INTO users"):
		userID := args[0].(int64)
		token := uuid.New().String()
		p.users[userID] = token
		return fakeRow{values: []any{token}}

	case strings.Contains(sql, "SELECT user_id FROM users"):
		token := args[0].(string)
		for userID, t := range p.users {
			if t == token {
				return fakeRow{values: []any{userID}}
			}
		}
		return fakeRow{err: pgx.ErrNoRows}

	case strings.Contains(sql, "SELECT is_open FROM rooms"):
		userID := args[0].(int64)
		isOpen, ok := p.rooms[userID]
		if !ok {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{values: []any{isOpen}}

	case strings.Contains(sql, "INSERT INTO requests"):
		body := args[0].([]byte)
		id := uuid.New().String()
		p.requests[id] = &fakeRequestRow{body: body}
		return fakeRow{values: []any{id}}

	case strings.Contains(sql, "SELECT request_body FROM requests"):
		id := args[0].(string)
		row, ok := p.requests[id]
		if !ok {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{values: []any{row.body}}

	case strings.Contains(sql, "DELETE FROM requests") && strings.Contains(sql, "RETURNING response"):
		id := args[0].(string)
		row, ok := p.requests[id]
		if !ok {
			return fakeRow{err: pgx.ErrNoRows}
		}
		delete(p.requests, id)
		if !row.hasResp {
			return fakeRow{values: []any{[]byte(nil)}}
		}
		return fakeRow{values: []any{row.response}}
	}
	return fakeRow{err: pgx.ErrNoRows}
}
