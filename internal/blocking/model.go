package blocking

import (
	"time"

	"github.com/hackgods/clinic-slot-booking/internal/clinic"
)

// Interval is an admin-declared unavailable window on one date.
// Overlapping intervals are kept as-is and read as their union.
type Interval struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// Covers reports whether t falls in [start, end). Unparseable intervals
// cover nothing.
func (iv Interval) Covers(t clinic.TimeOfDay) bool {
	start, err := clinic.ParseTimeOfDay(iv.StartTime)
	if err != nil {
		return false
	}
	end, err := clinic.ParseTimeOfDay(iv.EndTime)
	if err != nil {
		return false
	}
	return start <= t && t < end
}

type CreateRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime   string `json:"endTime" validate:"required,datetime=15:04"`
	Reason    string `json:"reason" validate:"required,min=5"`
}
