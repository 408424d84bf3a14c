package appointment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hackgods/clinic-slot-booking/internal/store"
)

var ErrAppointmentNotFound = fmt.Errorf("appointment %w", store.ErrNotFound)

// Repository contains all store interactions needed by the service.
type Repository interface {
	Append(ctx context.Context, a Appointment) error
	List(ctx context.Context) ([]Appointment, error)
	BookedTimes(ctx context.Context, date string) ([]string, error)
	Delete(ctx context.Context, id string) error
}

type storeRepository struct {
	store   store.Store
	timeout time.Duration
}

// NewStoreRepository keeps appointments as JSON items of the
// clinic:appointments list.
func NewStoreRepository(s store.Store, timeout time.Duration) Repository {
	return &storeRepository{store: s, timeout: timeout}
}

func (r *storeRepository) Append(ctx context.Context, a Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := store.AppendJSON(ctx, r.store, store.KeyAppointments, a); err != nil {
		return fmt.Errorf("append appointment: %w", err)
	}
	return nil
}

// List returns all appointments ordered by date then time.
func (r *storeRepository) List(ctx context.Context) ([]Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var entries []store.Entry[Appointment]
	err := store.RetryRead(ctx, func(ctx context.Context) error {
		var err error
		entries, err = store.ListJSON[Appointment](ctx, r.store, store.KeyAppointments)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	out := store.Values(entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

// BookedTimes lists the time of every live appointment on date. Cancelled
// appointments do not hold capacity.
func (r *storeRepository) BookedTimes(ctx context.Context, date string) ([]string, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0)
	for _, a := range all {
		if a.Date == date && a.Live() {
			out = append(out, a.Time)
		}
	}
	return out, nil
}

func (r *storeRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := store.DeleteByID(ctx, r.store, store.KeyAppointments, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrAppointmentNotFound
	}
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}
