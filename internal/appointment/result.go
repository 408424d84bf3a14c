package appointment

import (
	"errors"

	"github.com/hackgods/clinic-slot-booking/internal/validation"
)

// BookingResult is the structured outcome returned to the booking form.
type BookingResult struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Appointment *Appointment      `json:"appointment,omitempty"`
}

// ResultFor turns the outcome of Book into a BookingResult.
func ResultFor(appt *Appointment, err error) BookingResult {
	if err == nil {
		return BookingResult{
			Success:     true,
			Message:     "Appointment created successfully!",
			Appointment: appt,
		}
	}

	if verr, ok := validation.As(err); ok {
		return BookingResult{Message: verr.Message, FieldErrors: verr.Fields}
	}

	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return BookingResult{Message: conflict.Message()}
	}
	if errors.Is(err, ErrSlotBeingBooked) {
		return BookingResult{Message: "This time slot is being booked by someone else. Please try again."}
	}
	return BookingResult{Message: "Failed to create appointment. Please try again."}
}
