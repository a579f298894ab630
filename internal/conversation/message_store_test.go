package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMessageStoreLogExchange(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := NewMessageStore(db)

	mock.ExpectExec("INSERT INTO messages").
		WithArgs("maria", "quero agendar", "Qual é o seu nome completo?", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.LogExchange(context.Background(), "maria", "quero agendar", "Qual é o seu nome completo?"); err != nil {
		t.Fatalf("LogExchange: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMessageStoreLookupClientKnown(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := NewMessageStore(db)
	lastVisit := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"client_id", "name", "last_visit", "preferences"}).
		AddRow("11 1111", "Maria", lastVisit, []byte(`{"professional":"Ana","service":"corte"}`))
	mock.ExpectQuery("SELECT client_id, name, last_visit, preferences").
		WithArgs("11 1111").
		WillReturnRows(rows)

	profile, err := store.LookupClient(context.Background(), "11 1111")
	if err != nil {
		t.Fatalf("LookupClient: %v", err)
	}
	if profile == nil || profile.Name != "Maria" {
		t.Fatalf("profile = %+v", profile)
	}
	if profile.Preferences["professional"] != "Ana" {
		t.Fatalf("preferences = %+v", profile.Preferences)
	}
	if !profile.LastVisit.Equal(lastVisit) {
		t.Fatalf("last visit = %v", profile.LastVisit)
	}
}

func TestMessageStoreLookupClientUnknown(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := NewMessageStore(db)

	mock.ExpectQuery("SELECT client_id, name, last_visit, preferences").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"client_id", "name", "last_visit", "preferences"}))

	profile, err := store.LookupClient(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("LookupClient: %v", err)
	}
	if profile != nil {
		t.Fatalf("expected nil profile for unknown client, got %+v", profile)
	}
}

func TestMessageStoreUpsertClient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := NewMessageStore(db)

	mock.ExpectExec("INSERT INTO clients").
		WithArgs("11 1111", "Maria", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.UpsertClient(context.Background(), ClientProfile{
		ClientID: "11 1111",
		Name:     "Maria",
		Preferences: map[string]string{
			"professional": "Ana",
		},
	})
	if err != nil {
		t.Fatalf("UpsertClient: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMessageStoreNilIsNoOp(t *testing.T) {
	var store *MessageStore

	if err := store.LogExchange(context.Background(), "maria", "oi", "olá"); err != nil {
		t.Fatalf("LogExchange on nil store: %v", err)
	}
	profile, err := store.LookupClient(context.Background(), "maria")
	if err != nil || profile != nil {
		t.Fatalf("LookupClient on nil store = %+v, %v", profile, err)
	}
}
