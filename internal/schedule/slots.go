// Package schedule turns a day's configuration, blocked intervals and
// bookings into the ordered list of 30-minute slots.
package schedule

import (
	"time"

	"github.com/hackgods/clinic-slot-booking/internal/blocking"
	"github.com/hackgods/clinic-slot-booking/internal/clinic"
)

const (
	SlotDuration  = 30 * time.Minute
	DefaultBuffer = 30 * time.Minute
)

// Reasons attached to slots that cannot be booked.
const (
	ReasonPast    = "past"
	ReasonLunch   = "lunch"
	ReasonBlocked = "blocked"
	ReasonFull    = "full"
)

// Policy selects which slots a query returns.
type Policy int

const (
	// Bookable returns only available slots; full or excluded slots are
	// left out entirely.
	Bookable Policy = iota
	// AllWithStatus returns every slot of the working day with its status.
	AllWithStatus
)

type TimeSlot struct {
	Time           string `json:"time"`
	Available      bool   `json:"available"`
	RemainingSlots int    `json:"remainingSlots"`
	BlockedReason  string `json:"blockedReason,omitempty"`
}

// Input is everything one computation reads. Booked holds the times of the
// live appointments on Date, one entry per appointment.
type Input struct {
	Date    string
	Config  clinic.Config
	Blocked []blocking.Interval
	Booked  []string
	Now     time.Time
}

// Computer derives slots. Buffer is how far past now a slot must still run
// to be offered today.
type Computer struct {
	Buffer time.Duration
}

func NewComputer(buffer time.Duration) Computer {
	return Computer{Buffer: buffer}
}

// ComputeSlots returns every grid slot in [workStart, workEnd) in ascending
// order, annotated. Unusable work hours yield no slots.
func (c Computer) ComputeSlots(in Input) []TimeSlot {
	hours, err := in.Config.Parse()
	if err != nil || hours.WorkEnd <= hours.WorkStart {
		return []TimeSlot{}
	}

	booked := make(map[clinic.TimeOfDay]int, len(in.Booked))
	for _, raw := range in.Booked {
		if t, err := clinic.ParseTimeOfDay(raw); err == nil {
			booked[t]++
		}
	}

	blocked := make([]blocking.Interval, 0, len(in.Blocked))
	for _, iv := range in.Blocked {
		if iv.Date == in.Date {
			blocked = append(blocked, iv)
		}
	}

	today := in.Now.Format("2006-01-02")
	cutoff := clinic.SinceMidnight(in.Now) + c.Buffer

	count := int(hours.WorkEnd-hours.WorkStart) / int(SlotDuration/time.Minute)
	slots := make([]TimeSlot, 0, count)
	for i := 0; i < count; i++ {
		t := hours.WorkStart.Add(time.Duration(i) * SlotDuration)
		slot := TimeSlot{Time: t.String()}

		switch {
		case in.Date < today:
			slot.BlockedReason = ReasonPast
		case in.Date == today && slotEnd(t) <= cutoff:
			slot.BlockedReason = ReasonPast
		case hours.LunchEnabled && hours.LunchStart <= t && t < hours.LunchEnd:
			slot.BlockedReason = ReasonLunch
		default:
			if reason, ok := blockedBy(blocked, t); ok {
				slot.BlockedReason = reason
				break
			}
			slot.RemainingSlots = hours.Capacity - booked[t]
			if slot.RemainingSlots > 0 {
				slot.Available = true
			} else {
				slot.RemainingSlots = 0
				slot.BlockedReason = ReasonFull
			}
		}

		slots = append(slots, slot)
	}
	return slots
}

// ListBookableSlots is the booking view: available slots only.
func (c Computer) ListBookableSlots(in Input) []TimeSlot {
	all := c.ComputeSlots(in)
	out := make([]TimeSlot, 0, len(all))
	for _, s := range all {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

// ListAllSlotsWithStatus is the admin view: the whole working day.
func (c Computer) ListAllSlotsWithStatus(in Input) []TimeSlot {
	return c.ComputeSlots(in)
}

// Select applies a policy to a computation.
func (c Computer) Select(in Input, p Policy) []TimeSlot {
	if p == AllWithStatus {
		return c.ListAllSlotsWithStatus(in)
	}
	return c.ListBookableSlots(in)
}

func slotEnd(t clinic.TimeOfDay) time.Duration {
	return t.Duration() + SlotDuration
}

func blockedBy(intervals []blocking.Interval, t clinic.TimeOfDay) (string, bool) {
	for _, iv := range intervals {
		if iv.Covers(t) {
			if iv.Reason == "" {
				return ReasonBlocked, true
			}
			return iv.Reason, true
		}
	}
	return "", false
}
