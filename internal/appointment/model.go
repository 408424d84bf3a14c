package appointment

import (
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

const DefaultReason = "General visit"

type Appointment struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	UserName        string    `json:"userName"`
	UserEmail       string    `json:"userEmail"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Reason          string    `json:"reason"`
	IsEmergency     bool      `json:"isEmergency"`
	EmergencyReason string    `json:"emergencyReason"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Live reports whether the appointment occupies its slot.
func (a Appointment) Live() bool {
	return a.Status != StatusCancelled
}

// BookingRequest is what a patient submits. Language selects the
// confirmation template and is not stored.
type BookingRequest struct {
	UserName        string `json:"userName" validate:"required,min=2"`
	UserEmail       string `json:"userEmail" validate:"required,email"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"required,datetime=15:04"`
	Reason          string `json:"reason"`
	IsEmergency     bool   `json:"isEmergency"`
	EmergencyReason string `json:"emergencyReason" validate:"required_if=IsEmergency true"`
	Language        string `json:"language" validate:"omitempty,oneof=en pt-BR"`
}
