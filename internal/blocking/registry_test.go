package blocking

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-slot-booking/internal/clinic"
	"github.com/hackgods/clinic-slot-booking/internal/store"
	"github.com/hackgods/clinic-slot-booking/internal/validation"
)

// 2030-01-07 10:05 at UTC-3
var fixedNow = time.Date(2030, 1, 7, 13, 5, 0, 0, time.UTC)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	clock := clinic.NewClockAt(-3*time.Hour, func() time.Time { return fixedNow })
	return NewRegistry(store.NewRedisStore(client), validation.New(), clock, zap.NewNop(), time.Second)
}

func TestCreateAndListForDate(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Create(ctx, CreateRequest{Date: "2030-01-08", StartTime: "10:15", EndTime: "11:00", Reason: "Staff meeting"})
	require.NoError(t, err)
	first, err := r.Create(ctx, CreateRequest{Date: "2030-01-08", StartTime: "10:00", EndTime: "10:30", Reason: "Equipment check"})
	require.NoError(t, err)
	_, err = r.Create(ctx, CreateRequest{Date: "2030-01-09", StartTime: "09:00", EndTime: "12:00", Reason: "Training day"})
	require.NoError(t, err)

	got, err := r.ListForDate(ctx, "2030-01-08")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, "10:15", got[1].StartTime)
}

func TestCreateValidation(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name  string
		req   CreateRequest
		field string
	}{
		{"past date", CreateRequest{Date: "2030-01-06", StartTime: "10:00", EndTime: "11:00", Reason: "Holiday"}, "date"},
		{"inverted", CreateRequest{Date: "2030-01-08", StartTime: "11:00", EndTime: "10:00", Reason: "Holiday"}, "endTime"},
		{"equal", CreateRequest{Date: "2030-01-08", StartTime: "11:00", EndTime: "11:00", Reason: "Holiday"}, "endTime"},
		{"short reason", CreateRequest{Date: "2030-01-08", StartTime: "10:00", EndTime: "11:00", Reason: " off "}, "reason"},
		{"bad time", CreateRequest{Date: "2030-01-08", StartTime: "ten", EndTime: "11:00", Reason: "Holiday"}, "startTime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Create(context.Background(), tt.req)
			ve, ok := validation.As(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}

	all, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDelete(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	keep, err := r.Create(ctx, CreateRequest{Date: "2030-01-08", StartTime: "10:00", EndTime: "10:30", Reason: "Equipment check"})
	require.NoError(t, err)
	drop, err := r.Create(ctx, CreateRequest{Date: "2030-01-08", StartTime: "14:00", EndTime: "15:00", Reason: "Supplier visit"})
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, drop.ID))

	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)

	err = r.Delete(ctx, drop.ID)
	assert.ErrorIs(t, err, ErrIntervalNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestIntervalCovers(t *testing.T) {
	iv := Interval{StartTime: "10:00", EndTime: "10:30"}
	assert.True(t, iv.Covers(clinic.MustTimeOfDay("10:00")))
	assert.False(t, iv.Covers(clinic.MustTimeOfDay("10:30")))
	assert.False(t, Interval{StartTime: "x", EndTime: "10:30"}.Covers(clinic.MustTimeOfDay("10:00")))
}
