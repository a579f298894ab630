package schedule

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/espacodiva/bellabot/internal/salon"
)

type slotKey struct {
	date         string
	professional string
	slot         string
}

// MemoryRegistry keeps bookings in a mutex-guarded map. It backs the terminal
// bot and tests, optionally persisting each booking to an append-only log.
type MemoryRegistry struct {
	mu    sync.Mutex
	slots map[slotKey]Appointment
	log   *BookingLog
	now   func() time.Time
}

// MemoryOption configures the in-memory registry.
type MemoryOption func(*MemoryRegistry)

// WithBookingLog persists confirmed bookings to the supplied log and seeds
// the registry from its existing records.
func WithBookingLog(log *BookingLog) MemoryOption {
	return func(r *MemoryRegistry) {
		r.log = log
	}
}

// WithClock overrides the registry's notion of now. Used by tests to pin the
// default-date policy to known weekdays.
func WithClock(now func() time.Time) MemoryOption {
	return func(r *MemoryRegistry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry(opts ...MemoryOption) (*MemoryRegistry, error) {
	r := &MemoryRegistry{
		slots: make(map[slotKey]Appointment),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log != nil {
		seeded, err := r.log.Load()
		if err != nil {
			return nil, fmt.Errorf("schedule: seed registry from booking log: %w", err)
		}
		for _, appt := range seeded {
			r.slots[keyFor(appt)] = appt
		}
	}
	return r, nil
}

func keyFor(appt Appointment) slotKey {
	return slotKey{
		date:         DateKey(appt.Date),
		professional: strings.ToLower(appt.Professional),
		slot:         appt.TimeSlot,
	}
}

// IsFree reports whether the slot is unoccupied.
func (r *MemoryRegistry) IsFree(_ context.Context, date time.Time, professional, slot string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, taken := r.slots[slotKey{date: DateKey(date), professional: strings.ToLower(professional), slot: slot}]
	return !taken, nil
}

// Book records the appointment, resolving a zero date to the next business
// day. The availability re-check happens under the same lock as the write.
func (r *MemoryRegistry) Book(ctx context.Context, appt Appointment) (time.Time, error) {
	if strings.TrimSpace(appt.Professional) == "" {
		return time.Time{}, ErrMissingProfessional
	}
	if !salon.KnownSlot(appt.TimeSlot) {
		return time.Time{}, ErrUnknownSlot
	}
	if appt.Date.IsZero() {
		appt.Date = NextBusinessDay(r.now())
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = r.now().UTC()
	}

	key := keyFor(appt)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.slots[key]; taken {
		return time.Time{}, ErrSlotTaken
	}
	if r.log != nil {
		if err := r.log.Append(appt); err != nil {
			return time.Time{}, fmt.Errorf("schedule: persist booking: %w", err)
		}
	}
	r.slots[key] = appt
	return appt.Date, nil
}

// FreeSlotsFor returns the unbooked catalog slots in catalog order.
func (r *MemoryRegistry) FreeSlotsFor(_ context.Context, date time.Time, professional string) ([]string, error) {
	dateKey := DateKey(date)
	prof := strings.ToLower(professional)

	r.mu.Lock()
	defer r.mu.Unlock()

	free := make([]string, 0, len(salon.SlotCatalog))
	for _, slot := range salon.SlotCatalog {
		if _, taken := r.slots[slotKey{date: dateKey, professional: prof, slot: slot}]; !taken {
			free = append(free, slot)
		}
	}
	return free, nil
}

// AppointmentsFor lists the client's bookings, soonest first.
func (r *MemoryRegistry) AppointmentsFor(_ context.Context, clientContact string) ([]Appointment, error) {
	contact := strings.TrimSpace(clientContact)
	if contact == "" {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Appointment
	for _, appt := range r.slots {
		if appt.ClientContact == contact {
			out = append(out, appt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TimeSlot < out[j].TimeSlot
	})
	return out, nil
}

var _ Registry = (*MemoryRegistry)(nil)
var _ AppointmentLister = (*MemoryRegistry)(nil)
