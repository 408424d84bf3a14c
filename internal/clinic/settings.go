package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-slot-booking/internal/store"
	"github.com/hackgods/clinic-slot-booking/internal/validation"
)

// SettingsInput is the flat admin form submitted to SetConfig.
type SettingsInput struct {
	WorkHoursStart            string `json:"workHoursStart" validate:"required,datetime=15:04"`
	WorkHoursEnd              string `json:"workHoursEnd" validate:"required,datetime=15:04"`
	LunchTimeEnabled          bool   `json:"lunchTimeEnabled"`
	LunchTimeStart            string `json:"lunchTimeStart" validate:"required_if=LunchTimeEnabled true,omitempty,datetime=15:04"`
	LunchTimeEnd              string `json:"lunchTimeEnd" validate:"required_if=LunchTimeEnabled true,omitempty,datetime=15:04"`
	MaxConcurrentAppointments int    `json:"maxConcurrentAppointments" validate:"gte=1"`
}

// InputFrom renders a Config back into the admin form shape.
func InputFrom(cfg Config) SettingsInput {
	return SettingsInput{
		WorkHoursStart:            cfg.WorkHours.Start,
		WorkHoursEnd:              cfg.WorkHours.End,
		LunchTimeEnabled:          cfg.LunchTime.Enabled,
		LunchTimeStart:            cfg.LunchTime.Start,
		LunchTimeEnd:              cfg.LunchTime.End,
		MaxConcurrentAppointments: cfg.MaxConcurrentAppointments,
	}
}

// Settings is the accessor for the clinic config record. It is the only
// writer of store.KeySettings.
type Settings struct {
	store     store.Store
	validator *validation.Validator
	log       *zap.Logger
	timeout   time.Duration
}

func NewSettings(s store.Store, v *validation.Validator, log *zap.Logger, timeout time.Duration) *Settings {
	return &Settings{
		store:     s,
		validator: v,
		log:       log,
		timeout:   timeout,
	}
}

// GetConfig returns the stored config with every missing or corrupt field
// replaced by its default. A missing record is created with the defaults.
// Only a store outage is reported as an error.
func (s *Settings) GetConfig(ctx context.Context) (Config, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var stored storedConfig
	err := store.RetryRead(ctx, func(ctx context.Context) error {
		var err error
		stored, err = store.GetJSON[storedConfig](ctx, s.store, store.KeySettings)
		return err
	})

	switch {
	case err == nil:
		return stored.withDefaults(), nil
	case errors.Is(err, store.ErrNotFound):
		cfg := DefaultConfig()
		if err := store.SetJSON(ctx, s.store, store.KeySettings, cfg); err != nil {
			s.log.Warn("could not persist default clinic settings", zap.Error(err))
		}
		return cfg, nil
	case errors.Is(err, store.ErrUnavailable):
		return Config{}, fmt.Errorf("load clinic settings: %w", err)
	default:
		s.log.Warn("clinic settings record is corrupt, using defaults", zap.Error(err))
		return DefaultConfig(), nil
	}
}

// SetConfig validates the whole candidate and overwrites the record. On a
// validation failure nothing is written and a *validation.Error is returned.
func (s *Settings) SetConfig(ctx context.Context, in SettingsInput) (Config, error) {
	cfg, err := s.Validate(in)
	if err != nil {
		return Config{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := store.SetJSON(ctx, s.store, store.KeySettings, cfg); err != nil {
		return Config{}, fmt.Errorf("save clinic settings: %w", err)
	}

	s.log.Info("clinic settings updated",
		zap.String("work_start", cfg.WorkHours.Start),
		zap.String("work_end", cfg.WorkHours.End),
		zap.Bool("lunch_enabled", cfg.LunchTime.Enabled),
		zap.Int("max_concurrent", cfg.MaxConcurrentAppointments),
	)
	return cfg, nil
}

// Validate checks shape and ordering rules and builds the Config to store.
func (s *Settings) Validate(in SettingsInput) (Config, error) {
	if err := s.validator.Struct(in, "Missing Fields. Failed to Update Settings."); err != nil {
		return Config{}, err
	}

	workStart := MustTimeOfDay(in.WorkHoursStart)
	workEnd := MustTimeOfDay(in.WorkHoursEnd)
	if workEnd <= workStart {
		return Config{}, validation.NewError(
			"Invalid work hours. End time must be after start time.",
			"workHoursEnd", "End time must be after start time")
	}

	lunchStart, lunchEnd := in.LunchTimeStart, in.LunchTimeEnd
	if in.LunchTimeEnabled {
		ls := MustTimeOfDay(lunchStart)
		le := MustTimeOfDay(lunchEnd)
		if le <= ls {
			return Config{}, validation.NewError(
				"Invalid lunch time. End time must be after start time.",
				"lunchTimeEnd", "Lunch end time must be after start time")
		}
		if ls < workStart || le > workEnd {
			return Config{}, &validation.Error{
				Message: "Lunch time must be within work hours.",
				Fields: map[string]string{
					"lunchTimeStart": "Lunch time must be within work hours",
					"lunchTimeEnd":   "Lunch time must be within work hours",
				},
			}
		}
	}
	if lunchStart == "" {
		lunchStart = "12:00"
	}
	if lunchEnd == "" {
		lunchEnd = "13:00"
	}

	return Config{
		WorkHours: WorkHours{Start: in.WorkHoursStart, End: in.WorkHoursEnd},
		LunchTime: LunchTime{
			Enabled: in.LunchTimeEnabled,
			Start:   lunchStart,
			End:     lunchEnd,
		},
		MaxConcurrentAppointments: in.MaxConcurrentAppointments,
	}, nil
}
