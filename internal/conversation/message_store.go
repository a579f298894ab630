package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ClientProfile is the directory entry kept per known client.
type ClientProfile struct {
	ClientID    string
	Name        string
	LastVisit   time.Time
	Preferences map[string]string
}

// MessageStore persists the message log and the clients directory to
// PostgreSQL via database/sql. All methods are no-ops on a nil store so
// the terminal bot can run without a database.
type MessageStore struct {
	db *sql.DB
}

// NewMessageStore creates a message store.
func NewMessageStore(db *sql.DB) *MessageStore {
	if db == nil {
		return nil
	}
	return &MessageStore{db: db}
}

// LogExchange records one inbound/outbound turn of a session.
func (s *MessageStore) LogExchange(ctx context.Context, sessionID, inbound, outbound string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if sessionID == "" {
		return errors.New("conversation: message log sessionID required")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (client_id, inbound, outbound, created_at)
		 VALUES ($1, $2, $3, $4)`,
		sessionID, inbound, outbound, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("conversation: log exchange: %w", err)
	}
	return nil
}

// LookupClient returns the directory entry for a client, or nil when the
// contact has never booked before.
func (s *MessageStore) LookupClient(ctx context.Context, clientID string) (*ClientProfile, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if clientID == "" {
		return nil, errors.New("conversation: clientID required")
	}

	var (
		profile   ClientProfile
		lastVisit sql.NullTime
		prefsRaw  []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT client_id, name, last_visit, preferences
		 FROM clients WHERE client_id = $1`,
		clientID).Scan(&profile.ClientID, &profile.Name, &lastVisit, &prefsRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("conversation: lookup client: %w", err)
	}

	if lastVisit.Valid {
		profile.LastVisit = lastVisit.Time
	}
	if len(prefsRaw) > 0 {
		if err := json.Unmarshal(prefsRaw, &profile.Preferences); err != nil {
			return nil, fmt.Errorf("conversation: decode client preferences: %w", err)
		}
	}
	return &profile, nil
}

// UpsertClient records or refreshes a client directory entry after a
// confirmed booking. Preferences merge at the row level (last write wins).
func (s *MessageStore) UpsertClient(ctx context.Context, profile ClientProfile) error {
	if s == nil || s.db == nil {
		return nil
	}
	if profile.ClientID == "" {
		return errors.New("conversation: clientID required")
	}

	prefs := profile.Preferences
	if prefs == nil {
		prefs = map[string]string{}
	}
	prefsRaw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("conversation: encode client preferences: %w", err)
	}

	lastVisit := profile.LastVisit
	if lastVisit.IsZero() {
		lastVisit = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO clients (client_id, name, last_visit, preferences)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (client_id) DO UPDATE
		 SET name = EXCLUDED.name,
		     last_visit = EXCLUDED.last_visit,
		     preferences = EXCLUDED.preferences`,
		profile.ClientID, profile.Name, lastVisit, prefsRaw)
	if err != nil {
		return fmt.Errorf("conversation: upsert client: %w", err)
	}
	return nil
}
