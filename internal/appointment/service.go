package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-slot-booking/internal/clinic"
	"github.com/hackgods/clinic-slot-booking/internal/metrics"
	redisclient "github.com/hackgods/clinic-slot-booking/internal/redis"
	"github.com/hackgods/clinic-slot-booking/internal/schedule"
	"github.com/hackgods/clinic-slot-booking/internal/validation"
)

var (
	ErrSlotUnavailable = errors.New("slot is no longer available")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
)

// reasonNotOffered marks a requested time that is not on the day's grid.
const reasonNotOffered = "not-offered"

// ConflictError is returned when the fresh availability check at commit
// time rejects the requested slot. The caller should re-query and
// re-prompt.
type ConflictError struct {
	Date   string
	Time   string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s %s unavailable: %s", e.Date, e.Time, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrSlotUnavailable }

// Message is the patient-facing explanation.
func (e *ConflictError) Message() string {
	switch e.Reason {
	case schedule.ReasonPast:
		return "Cannot schedule appointments in the past. Please select a future time."
	case schedule.ReasonLunch:
		return "This time is during the clinic's lunch break. Please select another time."
	case schedule.ReasonFull:
		return "This time slot is fully booked. Please select another time."
	default:
		return "This time slot is not available. Please select another time."
	}
}

// SlotChecker recomputes one slot from fresh state.
type SlotChecker interface {
	Lookup(ctx context.Context, date, at string) (schedule.TimeSlot, bool, error)
}

// Notifier is told about each committed booking. It must not block and its
// failures never reach the caller.
type Notifier interface {
	Booked(appt Appointment, locale string)
}

type Service struct {
	repo      Repository
	slots     SlotChecker
	locker    redisclient.Locker
	validator *validation.Validator
	clock     clinic.Clock
	notifier  Notifier
	metrics   *metrics.BookingMetrics
	log       *zap.Logger
}

func NewService(
	repo Repository,
	slots SlotChecker,
	locker redisclient.Locker,
	v *validation.Validator,
	clock clinic.Clock,
	notifier Notifier,
	m *metrics.BookingMetrics,
	log *zap.Logger,
) *Service {
	return &Service{
		repo:      repo,
		slots:     slots,
		locker:    locker,
		validator: v,
		clock:     clock,
		notifier:  notifier,
		metrics:   m,
		log:       log,
	}
}

// Book validates the request, re-checks the slot against freshly loaded
// state and appends the appointment. The check and the append run under a
// per-slot lock so concurrent requests for the same slot cannot both pass
// the capacity check.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	req = normalize(req)

	if err := s.validator.Struct(req, "Missing Fields. Failed to Create Appointment."); err != nil {
		s.metrics.ObserveBooking("invalid")
		return nil, err
	}
	if err := s.checkNotPast(req); err != nil {
		s.metrics.ObserveBooking("invalid")
		return nil, err
	}

	var created Appointment
	err := s.locker.WithSlotLock(ctx, req.Date+":"+req.Time, func(lockCtx context.Context) error {
		slot, found, err := s.slots.Lookup(lockCtx, req.Date, req.Time)
		if err != nil {
			return fmt.Errorf("recheck slot: %w", err)
		}
		if !found {
			return &ConflictError{Date: req.Date, Time: req.Time, Reason: reasonNotOffered}
		}
		if !slot.Available {
			return &ConflictError{Date: req.Date, Time: req.Time, Reason: slot.BlockedReason}
		}

		appt := s.newAppointment(req)
		if err := s.repo.Append(lockCtx, appt); err != nil {
			return err
		}
		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			err = ErrSlotBeingBooked
		}
		if errors.Is(err, ErrSlotUnavailable) || errors.Is(err, ErrSlotBeingBooked) {
			s.metrics.ObserveBooking("conflict")
			s.log.Info("booking rejected",
				zap.String("date", req.Date),
				zap.String("time", req.Time),
				zap.Error(err),
			)
			return nil, err
		}
		s.metrics.ObserveBooking("error")
		s.log.Error("booking failed",
			zap.String("date", req.Date),
			zap.String("time", req.Time),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.ObserveBooking("booked")
	s.log.Info("appointment booked",
		zap.String("id", created.ID),
		zap.String("date", created.Date),
		zap.String("time", created.Time),
		zap.Bool("emergency", created.IsEmergency),
	)

	if s.notifier != nil {
		s.notifier.Booked(created, req.Language)
	}
	return &created, nil
}

// checkNotPast rejects dates before today and, for today, start times that
// have already passed in clinic time.
func (s *Service) checkNotPast(req BookingRequest) error {
	now := s.clock.Now()
	today := now.Format("2006-01-02")

	if req.Date < today {
		return validation.NewError(
			"Cannot schedule appointments in the past. Please select a future date.",
			"date", "Date is in the past")
	}
	if req.Date == today {
		at := clinic.MustTimeOfDay(req.Time)
		if at.Duration() < clinic.SinceMidnight(now) {
			return validation.NewError(
				"Cannot schedule appointments in the past. Please select a future time.",
				"time", "Time is in the past")
		}
	}
	return nil
}

func (s *Service) newAppointment(req BookingRequest) Appointment {
	reason := req.Reason
	if reason == "" {
		reason = DefaultReason
	}
	emergencyReason := ""
	if req.IsEmergency {
		emergencyReason = req.EmergencyReason
	}
	return Appointment{
		ID:              uuid.NewString(),
		UserID:          uuid.NewString(),
		UserName:        req.UserName,
		UserEmail:       req.UserEmail,
		Date:            req.Date,
		Time:            req.Time,
		Reason:          reason,
		IsEmergency:     req.IsEmergency,
		EmergencyReason: emergencyReason,
		Status:          StatusScheduled,
		CreatedAt:       s.clock.Now(),
	}
}

func normalize(req BookingRequest) BookingRequest {
	req.UserName = strings.TrimSpace(req.UserName)
	req.UserEmail = strings.TrimSpace(req.UserEmail)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Reason = strings.TrimSpace(req.Reason)
	req.EmergencyReason = strings.TrimSpace(req.EmergencyReason)
	return req
}

// List returns all appointments ordered by date then time.
func (s *Service) List(ctx context.Context) ([]Appointment, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListForDate(ctx context.Context, date string) ([]Appointment, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Appointment, 0, len(all))
	for _, a := range all {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("appointment deleted", zap.String("id", id))
	return nil
}
