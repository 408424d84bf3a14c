// Package clinic holds the clinic-wide availability configuration and the
// notion of clinic time.
package clinic

type WorkHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type LunchTime struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Config is the single persisted settings record.
type Config struct {
	WorkHours                 WorkHours `json:"workHours"`
	LunchTime                 LunchTime `json:"lunchTime"`
	MaxConcurrentAppointments int       `json:"maxConcurrentAppointments"`
}

func DefaultConfig() Config {
	return Config{
		WorkHours: WorkHours{Start: "09:00", End: "17:00"},
		LunchTime: LunchTime{Enabled: true, Start: "12:00", End: "13:00"},
		MaxConcurrentAppointments: 1,
	}
}

// Hours is the parsed form of Config used by slot computation.
type Hours struct {
	WorkStart    TimeOfDay
	WorkEnd      TimeOfDay
	LunchEnabled bool
	LunchStart   TimeOfDay
	LunchEnd     TimeOfDay
	Capacity     int
}

// Parse converts the stored strings. Lunch times are only parsed when lunch
// is enabled.
func (c Config) Parse() (Hours, error) {
	var h Hours
	var err error
	if h.WorkStart, err = ParseTimeOfDay(c.WorkHours.Start); err != nil {
		return Hours{}, err
	}
	if h.WorkEnd, err = ParseTimeOfDay(c.WorkHours.End); err != nil {
		return Hours{}, err
	}
	if c.LunchTime.Enabled {
		if h.LunchStart, err = ParseTimeOfDay(c.LunchTime.Start); err != nil {
			return Hours{}, err
		}
		if h.LunchEnd, err = ParseTimeOfDay(c.LunchTime.End); err != nil {
			return Hours{}, err
		}
		h.LunchEnabled = true
	}
	h.Capacity = c.MaxConcurrentAppointments
	return h, nil
}

// storedConfig mirrors Config with every field optional so a partial record
// can be filled in field by field.
type storedConfig struct {
	WorkHours *struct {
		Start *string `json:"start"`
		End   *string `json:"end"`
	} `json:"workHours"`
	LunchTime *struct {
		Enabled *bool   `json:"enabled"`
		Start   *string `json:"start"`
		End     *string `json:"end"`
	} `json:"lunchTime"`
	MaxConcurrentAppointments *int `json:"maxConcurrentAppointments"`
}

// withDefaults fills any missing or unparseable field from DefaultConfig.
func (s storedConfig) withDefaults() Config {
	cfg := DefaultConfig()

	if s.WorkHours != nil {
		cfg.WorkHours.Start = timeOr(s.WorkHours.Start, cfg.WorkHours.Start)
		cfg.WorkHours.End = timeOr(s.WorkHours.End, cfg.WorkHours.End)
	}
	if s.LunchTime != nil {
		if s.LunchTime.Enabled != nil {
			cfg.LunchTime.Enabled = *s.LunchTime.Enabled
		}
		cfg.LunchTime.Start = timeOr(s.LunchTime.Start, cfg.LunchTime.Start)
		cfg.LunchTime.End = timeOr(s.LunchTime.End, cfg.LunchTime.End)
	}
	if s.MaxConcurrentAppointments != nil && *s.MaxConcurrentAppointments >= 1 {
		cfg.MaxConcurrentAppointments = *s.MaxConcurrentAppointments
	}
	return cfg
}

func timeOr(v *string, def string) string {
	if v == nil {
		return def
	}
	if _, err := ParseTimeOfDay(*v); err != nil {
		return def
	}
	return *v
}
