package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequests_NewProducesUniqueIDs(t *testing.T) {
	requests := &Requests{DB: newFakePool()}
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := requests.New(ctx, []byte("body"))
		require.NoError(t, err)
		require.False(t, seen[id.String()], "request id collision")
		seen[id.String()] = true
	}
}

func TestRequests_TakeResponseThenMissing(t *testing.T) {
	requests := &Requests{DB: newFakePool()}
	ctx := context.Background()

	id, err := requests.New(ctx, []byte("body"))
	require.NoError(t, err)

	require.NoError(t, requests.SetResponse(ctx, id, []byte("output")))

	output, err := requests.TakeResponse(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("output"), output)

	_, err = requests.TakeResponse(ctx, id)
	assert.True(t, errors.Is(err, ErrNoResponse), "second take must report the row is gone")
}

func TestRequests_TakeResponseBeforeResponseSet(t *testing.T) {
	requests := &Requests{DB: newFakePool()}
	ctx := context.Background()

	id, err := requests.New(ctx, []byte("body"))
	require.NoError(t, err)

	_, err = requests.TakeResponse(ctx, id)
	assert.True(t, errors.Is(err, ErrNoResponse))
}

func TestRequests_RequestBodyDropsMissingRow(t *testing.T) {
	requests := &Requests{DB: newFakePool()}
	ctx := context.Background()

	id, err := requests.New(ctx, []byte("body"))
	require.NoError(t, err)
	requests.Delete(ctx, id)

	_, err = requests.RequestBody(ctx, id)
	assert.True(t, errors.Is(err, ErrNoResponse))
}
