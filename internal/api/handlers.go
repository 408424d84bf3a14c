package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-slot-booking/internal/appointment"
	"github.com/hackgods/clinic-slot-booking/internal/blocking"
	"github.com/hackgods/clinic-slot-booking/internal/clinic"
	"github.com/hackgods/clinic-slot-booking/internal/schedule"
	"github.com/hackgods/clinic-slot-booking/internal/validation"
)

func listSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required")
			return
		}

		slots, err := svc.Slots(r.Context(), date, schedule.ParsePolicy(r.URL.Query().Get("view")))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, slots)
	}
}

func bookAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appointment.BookingRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, appointment.BookingResult{
				Message: "Missing Fields. Failed to Create Appointment.",
			})
			return
		}

		appt, err := svc.Book(r.Context(), req)
		writeJSON(w, bookingStatus(err), appointment.ResultFor(appt, err))
	}
}

// bookingStatus picks the status for a booking outcome. Anything that is
// neither invalid input nor a conflict is treated as retryable.
func bookingStatus(err error) int {
	if err == nil {
		return http.StatusCreated
	}
	if _, ok := validation.As(err); ok {
		return http.StatusBadRequest
	}
	if errors.Is(err, appointment.ErrSlotUnavailable) || errors.Is(err, appointment.ErrSlotBeingBooked) {
		return http.StatusConflict
	}
	return http.StatusServiceUnavailable
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			list []appointment.Appointment
			err  error
		)
		if date := r.URL.Query().Get("date"); date != "" {
			list, err = svc.ListForDate(r.Context(), date)
		} else {
			list, err = svc.List(r.Context())
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func deleteAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment deleted successfully"})
	}
}

func getSettingsHandler(settings *clinic.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := settings.GetConfig(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

func updateSettingsHandler(settings *clinic.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in clinic.SettingsInput
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse settings")
			return
		}

		cfg, err := settings.SetConfig(r.Context(), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

func listBlockedTimesHandler(blocks *blocking.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			list []blocking.Interval
			err  error
		)
		if date := r.URL.Query().Get("date"); date != "" {
			list, err = blocks.ListForDate(r.Context(), date)
		} else {
			list, err = blocks.List(r.Context())
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func createBlockedTimeHandler(blocks *blocking.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req blocking.CreateRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse blocked time")
			return
		}

		iv, err := blocks.Create(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, iv)
	}
}

func deleteBlockedTimeHandler(blocks *blocking.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := blocks.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Blocked time deleted successfully"})
	}
}
