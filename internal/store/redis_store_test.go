package store

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreGetMissing(t *testing.T) {
	s, _ := newTestRedisStore(t)

	_, err := s.Get(context.Background(), KeySettings)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreSetGet(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeySettings, []byte(`{"a":1}`)))
	got, err := s.Get(ctx, KeySettings)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestRedisStoreListAppendKeepsOrder(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	for _, item := range []string{"one", "two", "three"} {
		require.NoError(t, s.ListAppend(ctx, KeyAppointments, []byte(item)))
	}

	all, err := s.ListRange(ctx, KeyAppointments, 0, -1)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "one", string(all[0]))
	assert.Equal(t, "three", string(all[2]))

	tail, err := s.ListRange(ctx, KeyAppointments, -2, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("two"), []byte("three")}, tail)
}

func TestRedisStoreListRemove(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.ListAppend(ctx, KeyBlockedTimes, []byte("keep")))
	require.NoError(t, s.ListAppend(ctx, KeyBlockedTimes, []byte("drop")))

	n, err := s.ListRemove(ctx, KeyBlockedTimes, []byte("drop"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	all, err := s.ListRange(ctx, KeyBlockedTimes, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("keep")}, all)
}

func TestRedisStoreDelete(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.ListAppend(ctx, KeyAppointments, []byte("x")))
	require.NoError(t, s.Delete(ctx, KeyAppointments))
	assert.False(t, mr.Exists(KeyAppointments))
}

func TestRedisStoreUnavailable(t *testing.T) {
	s, mr := newTestRedisStore(t)
	require.NoError(t, s.Ping(context.Background()))
	mr.Close()

	_, err := s.Get(context.Background(), KeySettings)
	assert.ErrorIs(t, err, ErrUnavailable)

	err = s.ListAppend(context.Background(), KeyAppointments, []byte("x"))
	assert.ErrorIs(t, err, ErrUnavailable)
}
