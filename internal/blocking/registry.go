package blocking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-slot-booking/internal/clinic"
	"github.com/hackgods/clinic-slot-booking/internal/store"
	"github.com/hackgods/clinic-slot-booking/internal/validation"
)

var ErrIntervalNotFound = fmt.Errorf("blocked time %w", store.ErrNotFound)

// Registry owns the blocked interval list.
type Registry struct {
	store     store.Store
	validator *validation.Validator
	clock     clinic.Clock
	log       *zap.Logger
	timeout   time.Duration
}

func NewRegistry(s store.Store, v *validation.Validator, clock clinic.Clock, log *zap.Logger, timeout time.Duration) *Registry {
	return &Registry{
		store:     s,
		validator: v,
		clock:     clock,
		log:       log,
		timeout:   timeout,
	}
}

func (r *Registry) Create(ctx context.Context, req CreateRequest) (*Interval, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := r.validator.Struct(req, "Missing Fields. Failed to Block Time."); err != nil {
		return nil, err
	}

	verr := &validation.Error{Message: "Invalid blocked time."}
	if req.Date < r.clock.Today() {
		verr.Add("date", "Cannot block time in the past. Please select a future date.")
	}
	if clinic.MustTimeOfDay(req.EndTime) <= clinic.MustTimeOfDay(req.StartTime) {
		verr.Add("endTime", "End time must be after start time")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	iv := Interval{
		ID:        uuid.NewString(),
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
		CreatedAt: r.clock.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := store.AppendJSON(ctx, r.store, store.KeyBlockedTimes, iv); err != nil {
		return nil, fmt.Errorf("append blocked time: %w", err)
	}

	r.log.Info("time blocked",
		zap.String("id", iv.ID),
		zap.String("date", iv.Date),
		zap.String("start", iv.StartTime),
		zap.String("end", iv.EndTime),
	)
	return &iv, nil
}

// List returns every interval ordered by date and start time.
func (r *Registry) List(ctx context.Context) ([]Interval, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var entries []store.Entry[Interval]
	err := store.RetryRead(ctx, func(ctx context.Context) error {
		var err error
		entries, err = store.ListJSON[Interval](ctx, r.store, store.KeyBlockedTimes)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list blocked times: %w", err)
	}

	out := store.Values(entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *Registry) ListForDate(ctx context.Context, date string) ([]Interval, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Interval, 0, len(all))
	for _, iv := range all {
		if iv.Date == date {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (r *Registry) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := store.DeleteByID(ctx, r.store, store.KeyBlockedTimes, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrIntervalNotFound
	}
	if err != nil {
		return fmt.Errorf("delete blocked time: %w", err)
	}

	r.log.Info("blocked time deleted", zap.String("id", id))
	return nil
}
