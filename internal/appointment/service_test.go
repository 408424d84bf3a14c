package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-slot-booking/internal/blocking"
	"github.com/hackgods/clinic-slot-booking/internal/clinic"
	redisclient "github.com/hackgods/clinic-slot-booking/internal/redis"
	"github.com/hackgods/clinic-slot-booking/internal/schedule"
	"github.com/hackgods/clinic-slot-booking/internal/store"
	"github.com/hackgods/clinic-slot-booking/internal/validation"
)

// 10:05 at the clinic (UTC-3).
var clock = clinic.NewClockAt(-3*time.Hour, func() time.Time {
	return time.Date(2030, 1, 7, 13, 5, 0, 0, time.UTC)
})

const (
	today    = "2030-01-07"
	tomorrow = "2030-01-08"
)

type recordingNotifier struct {
	mu     sync.Mutex
	booked []Appointment
	locale []string
}

func (r *recordingNotifier) Booked(appt Appointment, locale string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.booked = append(r.booked, appt)
	r.locale = append(r.locale, locale)
}

// hideRemover strips ListRemove so deletes take the rewrite path.
type hideRemover struct {
	store.Store
}

type harness struct {
	svc      *Service
	settings *clinic.Settings
	blocks   *blocking.Registry
	client   *redis.Client
	notifier *recordingNotifier
}

func newHarness(t *testing.T, wrap func(store.Store) store.Store) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var st store.Store = store.NewRedisStore(client)
	if wrap != nil {
		st = wrap(st)
	}

	v := validation.New()
	log := zap.NewNop()
	settings := clinic.NewSettings(st, v, log, time.Second)
	blocks := blocking.NewRegistry(st, v, clock, log, time.Second)
	repo := NewStoreRepository(st, time.Second)
	slots := schedule.NewService(settings, blocks, repo, schedule.NewComputer(schedule.DefaultBuffer), clock, nil, log)
	locker := redisclient.NewRedisSlotLocker(client, 5*time.Second, 5*time.Second)
	notifier := &recordingNotifier{}

	return &harness{
		svc:      NewService(repo, slots, locker, v, clock, notifier, nil, log),
		settings: settings,
		blocks:   blocks,
		client:   client,
		notifier: notifier,
	}
}

func request(date, at string) BookingRequest {
	return BookingRequest{
		UserName:  "Maria Silva",
		UserEmail: "maria@example.com",
		Date:      date,
		Time:      at,
	}
}

func setCapacity(t *testing.T, h *harness, n int) {
	t.Helper()
	in := clinic.InputFrom(clinic.DefaultConfig())
	in.MaxConcurrentAppointments = n
	_, err := h.settings.SetConfig(context.Background(), in)
	require.NoError(t, err)
}

func TestBookCreatesAppointment(t *testing.T) {
	h := newHarness(t, nil)

	req := request(tomorrow, "09:00")
	req.Language = "pt-BR"
	appt, err := h.svc.Book(context.Background(), req)
	require.NoError(t, err)

	assert.NotEmpty(t, appt.ID)
	assert.NotEmpty(t, appt.UserID)
	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, DefaultReason, appt.Reason)
	assert.Equal(t, clock.Now(), appt.CreatedAt)

	list, err := h.svc.ListForDate(context.Background(), tomorrow)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, appt.ID, list[0].ID)

	require.Len(t, h.notifier.booked, 1)
	assert.Equal(t, "pt-BR", h.notifier.locale[0])
}

func TestBookValidation(t *testing.T) {
	h := newHarness(t, nil)

	req := BookingRequest{
		UserName:    " A ",
		UserEmail:   "not-an-email",
		Date:        tomorrow,
		Time:        "09:00",
		IsEmergency: true,
	}
	_, err := h.svc.Book(context.Background(), req)

	verr, ok := validation.As(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "userName")
	assert.Equal(t, "Please enter a valid email address", verr.Fields["userEmail"])
	assert.Contains(t, verr.Fields, "emergencyReason")
	assert.Empty(t, h.notifier.booked)
}

func TestBookRejectsPast(t *testing.T) {
	h := newHarness(t, nil)

	tests := []struct {
		name  string
		date  string
		at    string
		field string
	}{
		{"yesterday", "2030-01-06", "14:00", "date"},
		{"earlier today", today, "09:30", "time"},
		{"current slot", today, "10:00", "time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Book(context.Background(), request(tt.date, tt.at))
			verr, ok := validation.As(err)
			require.True(t, ok)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestBookLaterToday(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.Book(context.Background(), request(today, "10:30"))
	require.NoError(t, err)
}

func TestBookConflicts(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.blocks.Create(context.Background(), blocking.CreateRequest{
		Date: tomorrow, StartTime: "15:00", EndTime: "16:00", Reason: "staff meeting",
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		at     string
		reason string
	}{
		{"lunch", "12:00", schedule.ReasonLunch},
		{"blocked", "15:30", "staff meeting"},
		{"off grid", "09:15", reasonNotOffered},
		{"after hours", "18:00", reasonNotOffered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Book(context.Background(), request(tomorrow, tt.at))
			var conflict *ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, tt.reason, conflict.Reason)
			assert.ErrorIs(t, err, ErrSlotUnavailable)
		})
	}
}

func TestBookFullSlot(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.Book(context.Background(), request(tomorrow, "09:00"))
	require.NoError(t, err)

	_, err = h.svc.Book(context.Background(), request(tomorrow, "09:00"))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, schedule.ReasonFull, conflict.Reason)
}

func TestConcurrentBookingsNeverExceedCapacity(t *testing.T) {
	h := newHarness(t, nil)
	setCapacity(t, h, 2)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		booked    int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Book(context.Background(), request(tomorrow, "14:00"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked++
			case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrSlotBeingBooked):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, booked)
	assert.Equal(t, attempts-2, conflicts)

	list, err := h.svc.ListForDate(context.Background(), tomorrow)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCancelledAppointmentFreesCapacity(t *testing.T) {
	h := newHarness(t, nil)

	cancelled := Appointment{ID: "c1", Date: tomorrow, Time: "09:00", Status: StatusCancelled}
	require.NoError(t, store.AppendJSON(context.Background(), store.NewRedisStore(h.client), store.KeyAppointments, cancelled))

	_, err := h.svc.Book(context.Background(), request(tomorrow, "09:00"))
	require.NoError(t, err)
}

func TestDeleteKeepsOthersByteForByte(t *testing.T) {
	for name, wrap := range map[string]func(store.Store) store.Store{
		"indexed": nil,
		"rewrite": func(s store.Store) store.Store { return hideRemover{s} },
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, wrap)
			ctx := context.Background()

			var ids []string
			for _, at := range []string{"09:00", "09:30", "10:00", "10:30"} {
				appt, err := h.svc.Book(ctx, request(tomorrow, at))
				require.NoError(t, err)
				ids = append(ids, appt.ID)
			}

			before, err := h.client.LRange(ctx, store.KeyAppointments, 0, -1).Result()
			require.NoError(t, err)

			require.NoError(t, h.svc.Delete(ctx, ids[1]))

			after, err := h.client.LRange(ctx, store.KeyAppointments, 0, -1).Result()
			require.NoError(t, err)
			assert.Equal(t, []string{before[0], before[2], before[3]}, after)
		})
	}
}

func TestDeleteMissing(t *testing.T) {
	h := newHarness(t, nil)

	err := h.svc.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListOrdersByDateThenTime(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	for _, r := range []BookingRequest{
		request("2030-01-09", "09:00"),
		request(tomorrow, "11:00"),
		request(tomorrow, "09:30"),
	} {
		_, err := h.svc.Book(ctx, r)
		require.NoError(t, err)
	}

	list, err := h.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "09:30", list[0].Time)
	assert.Equal(t, "11:00", list[1].Time)
	assert.Equal(t, "2030-01-09", list[2].Date)
}

func TestBookStoreDown(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.client.Close())

	_, err := h.svc.Book(context.Background(), request(tomorrow, "09:00"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotUnavailable)
	assert.Equal(t, "Failed to create appointment. Please try again.", ResultFor(nil, err).Message)
}
