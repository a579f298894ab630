package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/espacodiva/bellabot/internal/salon"
)

const uniqueViolationCode = "23505"

// pgxQuerier is the subset of pgxpool.Pool the registry uses. Tests inject a
// pgxmock pool through it.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRegistry stores appointments in the relational database. The
// UNIQUE(professional, time_slot, appointment_date) index makes Book's
// check-then-write atomic at commit time.
type PostgresRegistry struct {
	db  pgxQuerier
	now func() time.Time
}

// NewPostgresRegistry initializes a registry backed by pgxpool.
func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	if pool == nil {
		panic("schedule: pgx pool required")
	}
	return &PostgresRegistry{db: pool, now: time.Now}
}

// NewPostgresRegistryWithDB allows injecting mocks for tests.
func NewPostgresRegistryWithDB(db pgxQuerier) *PostgresRegistry {
	return &PostgresRegistry{db: db, now: time.Now}
}

// IsFree reports whether no appointment row occupies the slot.
func (r *PostgresRegistry) IsFree(ctx context.Context, date time.Time, professional, slot string) (bool, error) {
	query := `
		SELECT COUNT(1) FROM appointments
		WHERE LOWER(professional) = LOWER($1) AND time_slot = $2 AND appointment_date = $3
	`
	var count int
	if err := r.db.QueryRow(ctx, query, professional, slot, midnightUTC(date)).Scan(&count); err != nil {
		return false, fmt.Errorf("schedule: availability check failed: %w", err)
	}
	return count == 0, nil
}

// Book inserts the appointment row. A unique-index violation maps to
// ErrSlotTaken so callers can refresh the offered list.
func (r *PostgresRegistry) Book(ctx context.Context, appt Appointment) (time.Time, error) {
	if strings.TrimSpace(appt.Professional) == "" {
		return time.Time{}, ErrMissingProfessional
	}
	if !salon.KnownSlot(appt.TimeSlot) {
		return time.Time{}, ErrUnknownSlot
	}
	if appt.Date.IsZero() {
		appt.Date = NextBusinessDay(r.now())
	}

	query := `
		INSERT INTO appointments (id, client_name, client_contact, professional, service, time_slot, appointment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		uuid.New(),
		appt.ClientName,
		appt.ClientContact,
		appt.Professional,
		appt.Service,
		appt.TimeSlot,
		midnightUTC(appt.Date),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return time.Time{}, ErrSlotTaken
		}
		return time.Time{}, fmt.Errorf("schedule: insert appointment failed: %w", err)
	}
	return appt.Date, nil
}

// FreeSlotsFor subtracts booked rows from the catalog, preserving catalog order.
func (r *PostgresRegistry) FreeSlotsFor(ctx context.Context, date time.Time, professional string) ([]string, error) {
	query := `
		SELECT time_slot FROM appointments
		WHERE LOWER(professional) = LOWER($1) AND appointment_date = $2
	`
	rows, err := r.db.Query(ctx, query, professional, midnightUTC(date))
	if err != nil {
		return nil, fmt.Errorf("schedule: free slot query failed: %w", err)
	}
	defer rows.Close()

	taken := make(map[string]struct{})
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("schedule: scan booked slot: %w", err)
		}
		taken[slot] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: read booked slots: %w", err)
	}

	free := make([]string, 0, len(salon.SlotCatalog))
	for _, slot := range salon.SlotCatalog {
		if _, ok := taken[slot]; !ok {
			free = append(free, slot)
		}
	}
	return free, nil
}

// AppointmentsFor lists the client's bookings, soonest first.
func (r *PostgresRegistry) AppointmentsFor(ctx context.Context, clientContact string) ([]Appointment, error) {
	query := `
		SELECT client_name, client_contact, professional, service, time_slot, appointment_date, created_at
		FROM appointments
		WHERE client_contact = $1
		ORDER BY appointment_date ASC, time_slot ASC
	`
	rows, err := r.db.Query(ctx, query, strings.TrimSpace(clientContact))
	if err != nil {
		return nil, fmt.Errorf("schedule: appointment list query failed: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var appt Appointment
		if err := rows.Scan(&appt.ClientName, &appt.ClientContact, &appt.Professional, &appt.Service, &appt.TimeSlot, &appt.Date, &appt.CreatedAt); err != nil {
			return nil, fmt.Errorf("schedule: scan appointment row: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: read appointment rows: %w", err)
	}
	return out, nil
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var _ Registry = (*PostgresRegistry)(nil)
var _ AppointmentLister = (*PostgresRegistry)(nil)
