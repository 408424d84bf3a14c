package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainStore hides ListRemove so DeleteByID takes the rewrite path.
type plainStore struct {
	Store
}

// flakyStore fails the first n ListRange calls with ErrUnavailable.
type flakyStore struct {
	Store
	failures int
	calls    int
}

func (f *flakyStore) ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, unavailable("flaky range", errors.New("connection reset"))
	}
	return f.Store.ListRange(ctx, key, start, stop)
}

func seedRecords(t *testing.T, s Store, n int) [][]byte {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		require.NoError(t, AppendJSON(ctx, s, KeyAppointments, record{ID: fmt.Sprintf("id-%d", i), Name: fmt.Sprintf("patient %d", i)}))
	}
	raws, err := s.ListRange(ctx, KeyAppointments, 0, -1)
	require.NoError(t, err)
	return raws
}

func TestDeleteByIDRemover(t *testing.T) {
	s, _ := newTestRedisStore(t)
	before := seedRecords(t, s, 5)

	require.NoError(t, DeleteByID(context.Background(), s, KeyAppointments, "id-2"))

	after, err := s.ListRange(context.Background(), KeyAppointments, 0, -1)
	require.NoError(t, err)
	want := append(append([][]byte{}, before[:2]...), before[3:]...)
	assert.Equal(t, want, after)
}

func TestDeleteByIDRewriteKeepsSurvivorsByteForByte(t *testing.T) {
	rs, _ := newTestRedisStore(t)
	s := plainStore{rs}
	before := seedRecords(t, s, 6)

	require.NoError(t, DeleteByID(context.Background(), s, KeyAppointments, "id-0"))

	after, err := s.ListRange(context.Background(), KeyAppointments, 0, -1)
	require.NoError(t, err)
	require.Len(t, after, 5)
	assert.Equal(t, before[1:], after)
}

func TestDeleteByIDRewriteLastItem(t *testing.T) {
	rs, mr := newTestRedisStore(t)
	s := plainStore{rs}
	seedRecords(t, s, 1)

	require.NoError(t, DeleteByID(context.Background(), s, KeyAppointments, "id-0"))
	assert.False(t, mr.Exists(KeyAppointments))
}

func TestDeleteByIDNotFound(t *testing.T) {
	s, _ := newTestRedisStore(t)
	seedRecords(t, s, 2)

	err := DeleteByID(context.Background(), s, KeyAppointments, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = DeleteByID(context.Background(), plainStore{s}, KeyAppointments, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteByIDRetriesReads(t *testing.T) {
	rs, _ := newTestRedisStore(t)
	seedRecords(t, rs, 3)

	flaky := &flakyStore{Store: rs, failures: 2}
	require.NoError(t, DeleteByID(context.Background(), flaky, KeyAppointments, "id-1"))
	assert.Equal(t, 3, flaky.calls)

	left, err := rs.ListRange(context.Background(), KeyAppointments, 0, -1)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestDeleteByIDGivesUpAfterThreeReads(t *testing.T) {
	rs, _ := newTestRedisStore(t)
	seedRecords(t, rs, 3)

	flaky := &flakyStore{Store: rs, failures: 3}
	err := DeleteByID(context.Background(), flaky, KeyAppointments, "id-1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, flaky.calls)

	left, err := rs.ListRange(context.Background(), KeyAppointments, 0, -1)
	require.NoError(t, err)
	assert.Len(t, left, 3)
}

func TestRetryReadDoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	err := RetryRead(context.Background(), func(ctx context.Context) error {
		calls++
		return ErrNotFound
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, calls)
}
