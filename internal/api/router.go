package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-slot-booking/internal/appointment"
	"github.com/hackgods/clinic-slot-booking/internal/blocking"
	"github.com/hackgods/clinic-slot-booking/internal/clinic"
	"github.com/hackgods/clinic-slot-booking/internal/metrics"
	"github.com/hackgods/clinic-slot-booking/internal/schedule"
)

type RouterConfig struct {
	Slots          *schedule.Service
	Appointments   *appointment.Service
	Settings       *clinic.Settings
	Blocks         *blocking.Registry
	Checks         map[string]Pinger
	Metrics        *metrics.BookingMetrics
	MetricsHandler http.Handler
	Log            *zap.Logger
	Env            string
	Version        string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(cfg.Log, cfg.Metrics))

	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Get("/slots", listSlotsHandler(cfg.Slots))

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", bookAppointmentHandler(cfg.Appointments))
		r.Get("/", listAppointmentsHandler(cfg.Appointments))
		r.Delete("/{id}", deleteAppointmentHandler(cfg.Appointments))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/settings", getSettingsHandler(cfg.Settings))
		r.Put("/settings", updateSettingsHandler(cfg.Settings))
		r.Get("/blocked-times", listBlockedTimesHandler(cfg.Blocks))
		r.Post("/blocked-times", createBlockedTimeHandler(cfg.Blocks))
		r.Delete("/blocked-times/{id}", deleteBlockedTimeHandler(cfg.Blocks))
	})

	return r
}
