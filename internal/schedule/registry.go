package schedule

import (
	"context"
	"time"
)

// Registry tracks which slots are taken and records new bookings. The
// check-then-write inside Book is atomic per key: two clients racing for the
// identical slot see exactly one success and one ErrSlotTaken.
type Registry interface {
	// IsFree reports whether no appointment occupies (date, professional, slot).
	IsFree(ctx context.Context, date time.Time, professional, slot string) (bool, error)

	// Book records the appointment and returns the finalized date. When
	// appt.Date is zero the registry resolves it to the next business day.
	Book(ctx context.Context, appt Appointment) (time.Time, error)

	// FreeSlotsFor returns the catalog minus booked slots for that
	// professional and date, in catalog order.
	FreeSlotsFor(ctx context.Context, date time.Time, professional string) ([]string, error)
}

// AppointmentLister is an optional registry capability: listing the bookings
// recorded for one client, soonest first. The engine uses it for the
// "meus horários" menu option via type assertion.
type AppointmentLister interface {
	AppointmentsFor(ctx context.Context, clientContact string) ([]Appointment, error)
}
