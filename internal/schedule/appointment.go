// Package schedule owns appointment-slot allocation for the salon: which
// (date, professional, time slot) triples are taken, which remain free, and
// how free-form time expressions map onto the slot catalog.
package schedule

import (
	"errors"
	"time"
)

// Appointment is a confirmed booking. Immutable once created.
type Appointment struct {
	ClientName    string    `json:"client_name"`
	ClientContact string    `json:"client_contact"`
	Professional  string    `json:"professional"`
	Service       string    `json:"service"`
	TimeSlot      string    `json:"time_slot"`
	Date          time.Time `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
}

var (
	// ErrSlotTaken is returned when a booking collides with an occupied slot.
	ErrSlotTaken = errors.New("schedule: slot already booked")

	// ErrUnknownSlot is returned when the time slot is not in the catalog.
	ErrUnknownSlot = errors.New("schedule: time slot not in catalog")

	// ErrMissingProfessional is returned when the appointment has no professional.
	ErrMissingProfessional = errors.New("schedule: professional is required")
)

// DateKey formats a date the way registry keys and availability queries use it.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// NextBusinessDay resolves the default booking date: the day after from,
// skipping weekends. Tomorrow on a Saturday lands on Monday (+3 days from
// today); on a Sunday, Monday (+2 days).
func NextBusinessDay(from time.Time) time.Time {
	d := from.AddDate(0, 0, 1)
	switch d.Weekday() {
	case time.Saturday:
		d = d.AddDate(0, 0, 2)
	case time.Sunday:
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}
