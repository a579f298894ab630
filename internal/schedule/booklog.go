package schedule

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// BookingLog is an append-only flat-file record of confirmed bookings, one
// JSON object per line. Earlier iterations of the bot wrote a delimited text
// line and re-derived occupied slots by splitting on " às ", which lost the
// appointment date; the structured format keeps the date so availability
// queries stay date-scoped.
type BookingLog struct {
	mu   sync.Mutex
	path string
}

// NewBookingLog opens (or creates) the log at path.
func NewBookingLog(path string) (*BookingLog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("schedule: booking log path is required")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("schedule: open booking log: %w", err)
	}
	_ = f.Close()
	return &BookingLog{path: path}, nil
}

// Append writes one booking record.
func (l *BookingLog) Append(appt Appointment) error {
	data, err := json.Marshal(appt)
	if err != nil {
		return fmt.Errorf("schedule: marshal booking record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("schedule: open booking log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("schedule: append booking record: %w", err)
	}
	return nil
}

// Load reads every record in the log. Lines in the legacy delimited format
// are parsed too, so logs written by the old bot still seed the registry.
func (l *BookingLog) Load() ([]Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("schedule: open booking log: %w", err)
	}
	defer f.Close()

	var out []Appointment
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "{") {
			var appt Appointment
			if err := json.Unmarshal([]byte(line), &appt); err != nil {
				return nil, fmt.Errorf("schedule: decode booking record: %w", err)
			}
			out = append(out, appt)
			continue
		}
		if appt, ok := parseLegacyLine(line); ok {
			out = append(out, appt)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("schedule: read booking log: %w", err)
	}
	return out, nil
}

// parseLegacyLine reads the old bot's record format:
//
//	<DD/MM/YYYY HH:MM> - Cliente: <name> - Número: <contact> - <professional> - <service> às <slot>
func parseLegacyLine(line string) (Appointment, bool) {
	slotIdx := strings.LastIndex(line, " às ")
	if slotIdx < 0 {
		return Appointment{}, false
	}
	slot := strings.TrimSpace(line[slotIdx+len(" às "):])

	parts := strings.Split(line[:slotIdx], " - ")
	if len(parts) < 5 {
		return Appointment{}, false
	}

	createdAt, err := time.Parse("02/01/2006 15:04", strings.TrimSpace(parts[0]))
	if err != nil {
		return Appointment{}, false
	}

	appt := Appointment{
		ClientName:    strings.TrimSpace(strings.TrimPrefix(parts[1], "Cliente:")),
		ClientContact: strings.TrimSpace(strings.TrimPrefix(parts[2], "Número:")),
		Professional:  strings.TrimSpace(parts[3]),
		Service:       strings.TrimSpace(parts[4]),
		TimeSlot:      slot,
		// The legacy format never recorded the appointment date; the write
		// timestamp is the closest anchor available.
		Date:      time.Date(createdAt.Year(), createdAt.Month(), createdAt.Day(), 0, 0, 0, 0, time.UTC),
		CreatedAt: createdAt,
	}
	return appt, true
}
