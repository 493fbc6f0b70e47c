package store

import (
	"context"

	"github.com/rybkr/gitphantom/internal/apperr"
	"github.com/rybkr/gitphantom/internal/types"
)

// Requests implements the request store (C3): the durable correlation row
// between a guest request and the owner's eventual response. Deletion by
// TakeResponse is the broker's primary garbage-collection mechanism — a
// successful delivery cleans up in one statement. Grounded on
// original_source/src/db/channel/{guest,owner}.rs.
type Requests struct {
	DB Queryer
}

func (r *Requests) New(ctx context.Context, body []byte) (types.RequestID, error) {
	row := r.DB.QueryRow(ctx, `INSERT INTO requests(request_body) VALUES ($1) RETURNING request_id`, body)

	var idStr string
	if err := row.Scan(&idStr); err != nil {
		return types.RequestID{}, apperr.StoreIO(err)
	}
	id, err := types.ParseRequestID(idStr)
	if err != nil {
		return types.RequestID{}, apperr.StoreIO(err)
	}
	return id, nil
}

// RequestBody point-reads the body of an in-flight request, used by the
// owner session's forwarder to fill in GitRequest.Body before sending.
func (r *Requests) RequestBody(ctx context.Context, id types.RequestID) ([]byte, error) {
	row := r.DB.QueryRow(ctx, `SELECT request_body FROM requests WHERE request_id = $1`, id.String())

	var body []byte
	if err := row.Scan(&body); err != nil {
		if isNoRows(err) {
			return nil, ErrNoResponse
		}
		return nil, apperr.StoreIO(err)
	}
	return body, nil
}

// SetResponse writes the owner's response into an in-flight request row.
// A missing row (the guest may have already timed out and deleted it) is
// not an error: the update matches no row and nil is returned.
func (r *Requests) SetResponse(ctx context.Context, id types.RequestID, output []byte) error {
	_, err := r.DB.Exec(ctx, `UPDATE requests SET response = $1 WHERE request_id = $2`, output, id.String())
	if err != nil {
		return apperr.StoreIO(err)
	}
	return nil
}

// TakeResponse atomically deletes the request row and returns its response,
// the guest handler's read-then-garbage-collect step. Returns ErrNoResponse
// if the row is missing or the response column is still NULL.
func (r *Requests) TakeResponse(ctx context.Context, id types.RequestID) ([]byte, error) {
	row := r.DB.QueryRow(ctx, `DELETE FROM requests WHERE request_id = $1 RETURNING response`, id.String())

	var response []byte
	if err := row.Scan(&response); err != nil {
		if isNoRows(err) {
			return nil, ErrNoResponse
		}
		return nil, apperr.StoreIO(err)
	}
	if response == nil {
		return nil, ErrNoResponse
	}
	return response, nil
}

// Delete best-effort removes a request row, used when the guest handler
// times out waiting for a response.
func (r *Requests) Delete(ctx context.Context, id types.RequestID) {
	_, _ = r.DB.Exec(ctx, `DELETE FROM requests WHERE request_id = $1`, id.String())
}
