package schedule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBookingLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.log")
	log, err := NewBookingLog(path)
	if err != nil {
		t.Fatalf("NewBookingLog: %v", err)
	}

	appt := Appointment{
		ClientName:    "Maria",
		ClientContact: "11 99999-0000",
		Professional:  "Ana",
		Service:       "corte",
		TimeSlot:      "10:00",
		Date:          time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt:     time.Date(2026, 3, 9, 15, 4, 0, 0, time.UTC),
	}
	if err := log.Append(appt); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := log.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.Professional != "Ana" || got.TimeSlot != "10:00" || !got.Date.Equal(appt.Date) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestBookingLogParsesLegacyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.log")
	legacy := "09/03/2026 15:04 - Cliente: Maria - Número: 11 99999-0000 - Ana - corte às 10:00\n"
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy log: %v", err)
	}

	log, err := NewBookingLog(path)
	if err != nil {
		t.Fatalf("NewBookingLog: %v", err)
	}
	records, err := log.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 legacy record, got %d", len(records))
	}
	got := records[0]
	if got.ClientName != "Maria" || got.Professional != "Ana" || got.Service != "corte" || got.TimeSlot != "10:00" {
		t.Fatalf("legacy parse mismatch: %+v", got)
	}
	if got.Date.IsZero() {
		t.Fatalf("legacy record should anchor a date from the write timestamp")
	}
}

func TestRegistrySeededFromBookingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.log")
	log, err := NewBookingLog(path)
	if err != nil {
		t.Fatalf("NewBookingLog: %v", err)
	}

	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	first, err := NewMemoryRegistry(WithBookingLog(log))
	if err != nil {
		t.Fatalf("NewMemoryRegistry: %v", err)
	}
	if _, err := first.Book(ctx, Appointment{
		ClientName:   "Maria",
		Professional: "Ana",
		Service:      "corte",
		TimeSlot:     "10:00",
		Date:         date,
	}); err != nil {
		t.Fatalf("Book: %v", err)
	}

	// A fresh registry over the same log sees the booking.
	second, err := NewMemoryRegistry(WithBookingLog(log))
	if err != nil {
		t.Fatalf("reopen registry: %v", err)
	}
	if _, err := second.Book(ctx, Appointment{
		ClientName:   "Joana",
		Professional: "Ana",
		Service:      "corte",
		TimeSlot:     "10:00",
		Date:         date,
	}); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken from seeded registry, got %v", err)
	}

	// Occupied slots are scoped by date: the same slot the next day is free.
	if _, err := second.Book(ctx, Appointment{
		ClientName:   "Joana",
		Professional: "Ana",
		Service:      "corte",
		TimeSlot:     "10:00",
		Date:         date.AddDate(0, 0, 1),
	}); err != nil {
		t.Fatalf("same slot on another day should book: %v", err)
	}
}
