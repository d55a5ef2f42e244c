package redis

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

func newTestRedis(t *testing.T) (IRedis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	l := logrus.New()
	l.SetOutput(io.Discard)

	r := New(Options{Addr: mr.Addr()}, l)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestSetGetDelete(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.SetJSON(ctx, "k", payload{ID: "a", Value: 12.5}, time.Minute))

	var got payload
	require.NoError(t, r.GetJSON(ctx, "k", &got))
	assert.Equal(t, payload{ID: "a", Value: 12.5}, got)

	deleted, err := r.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = r.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.ErrorIs(t, r.GetJSON(ctx, "k", &got), ErrNotFound)
}

func TestExpiry(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.SetJSON(ctx, "k", payload{ID: "a"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var got payload
	assert.ErrorIs(t, r.GetJSON(ctx, "k", &got), ErrNotFound)
}

func TestPing(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	l := logrus.New()
	l.SetOutput(io.Discard)
	r := New(Options{Addr: mr.Addr()}, l)
	defer r.Close()

	require.NoError(t, r.Ping(context.Background()))

	mr.Close()
	assert.Error(t, r.Ping(context.Background()))
}
