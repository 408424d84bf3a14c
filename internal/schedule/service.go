package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/clinic-slot-booking/internal/blocking"
	"github.com/hackgods/clinic-slot-booking/internal/clinic"
	"github.com/hackgods/clinic-slot-booking/internal/metrics"
	"github.com/hackgods/clinic-slot-booking/internal/validation"
)

type ConfigSource interface {
	GetConfig(ctx context.Context) (clinic.Config, error)
}

type BlockSource interface {
	ListForDate(ctx context.Context, date string) ([]blocking.Interval, error)
}

// AppointmentSource reports the times of the live appointments on a date,
// one entry per appointment.
type AppointmentSource interface {
	BookedTimes(ctx context.Context, date string) ([]string, error)
}

// Service computes slots from freshly loaded state on every call. Nothing
// is cached between calls.
type Service struct {
	config   ConfigSource
	blocks   BlockSource
	appts    AppointmentSource
	computer Computer
	clock    clinic.Clock
	metrics  *metrics.BookingMetrics
	log      *zap.Logger
}

func NewService(
	config ConfigSource,
	blocks BlockSource,
	appts AppointmentSource,
	computer Computer,
	clock clinic.Clock,
	m *metrics.BookingMetrics,
	log *zap.Logger,
) *Service {
	return &Service{
		config:   config,
		blocks:   blocks,
		appts:    appts,
		computer: computer,
		clock:    clock,
		metrics:  m,
		log:      log,
	}
}

// ParsePolicy maps the "view" query value to a Policy.
func ParsePolicy(view string) Policy {
	if view == "all" {
		return AllWithStatus
	}
	return Bookable
}

func (p Policy) String() string {
	if p == AllWithStatus {
		return "all"
	}
	return "bookable"
}

// Slots loads config, blocked intervals and appointments for date
// concurrently and computes the slots under the given policy.
func (s *Service) Slots(ctx context.Context, date string, p Policy) ([]TimeSlot, error) {
	if _, err := clinic.ParseDate(date); err != nil {
		return nil, validation.NewError("Invalid date.", "date", "date must be formatted as 2006-01-02")
	}

	start := time.Now()
	in, err := s.load(ctx, date)
	if err != nil {
		return nil, err
	}
	slots := s.computer.Select(in, p)
	s.metrics.ObserveSlotCompute(p.String(), time.Since(start).Seconds())
	return slots, nil
}

// Lookup computes the day fresh and returns the slot starting at at. found
// is false when at is not on the working-day grid.
func (s *Service) Lookup(ctx context.Context, date, at string) (slot TimeSlot, found bool, err error) {
	slots, err := s.Slots(ctx, date, AllWithStatus)
	if err != nil {
		return TimeSlot{}, false, err
	}
	for _, candidate := range slots {
		if candidate.Time == at {
			return candidate, true, nil
		}
	}
	return TimeSlot{}, false, nil
}

// IsBookable reports whether at is among the bookable slots of date.
func (s *Service) IsBookable(ctx context.Context, date, at string) (bool, error) {
	slot, found, err := s.Lookup(ctx, date, at)
	if err != nil {
		return false, err
	}
	return found && slot.Available, nil
}

func (s *Service) load(ctx context.Context, date string) (Input, error) {
	in := Input{Date: date, Now: s.clock.Now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cfg, err := s.config.GetConfig(gctx)
		if err != nil {
			return err
		}
		in.Config = cfg
		return nil
	})
	g.Go(func() error {
		blocked, err := s.blocks.ListForDate(gctx, date)
		if err != nil {
			return err
		}
		in.Blocked = blocked
		return nil
	})
	g.Go(func() error {
		booked, err := s.appts.BookedTimes(gctx, date)
		if err != nil {
			return err
		}
		in.Booked = booked
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.Warn("slot state load failed", zap.String("date", date), zap.Error(err))
		return Input{}, fmt.Errorf("load slot state for %s: %w", date, err)
	}
	return in, nil
}
