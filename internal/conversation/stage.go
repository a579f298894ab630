package conversation

import "time"

// Stage is the discrete step of the booking dialogue a client is in.
type Stage string

const (
	StageIdle                 Stage = "idle"
	StageAwaitingName         Stage = "awaiting_name"
	StageAwaitingContact      Stage = "awaiting_contact"
	StageAwaitingProfessional Stage = "awaiting_professional"
	StageAwaitingService      Stage = "awaiting_service"
	StageAwaitingTime         Stage = "awaiting_time"
	StageAwaitingConfirmation Stage = "awaiting_confirmation"
	StageSubmenuInfo          Stage = "submenu_info"
	StageAwaitingTipQuestion  Stage = "awaiting_tip_question"
)

// Session holds everything the engine needs to continue a dialogue:
// the current stage, the fields collected so far, and the slot list
// most recently offered to the client.
type Session struct {
	SessionID    string    `json:"session_id"`
	Contact      string    `json:"contact"`
	Stage        Stage     `json:"stage"`
	ClientName   string    `json:"client_name,omitempty"`
	Professional string    `json:"professional,omitempty"`
	Service      string    `json:"service,omitempty"`
	TimeSlot     string    `json:"time_slot,omitempty"`
	Date         time.Time `json:"date,omitempty"`
	OfferedSlots []string  `json:"offered_slots,omitempty"`
	Purpose      string    `json:"purpose,omitempty"` // "schedule" or "handoff"
	LastActivity time.Time `json:"last_activity"`
}

// Reset clears every collected field and returns the session to Idle.
// The session identity and contact survive a reset.
func (s *Session) Reset(now time.Time) {
	s.Stage = StageIdle
	s.ClientName = ""
	s.Professional = ""
	s.Service = ""
	s.TimeSlot = ""
	s.Date = time.Time{}
	s.OfferedSlots = nil
	s.Purpose = ""
	s.LastActivity = now
}

// Expired reports whether the session has been inactive longer than ttl.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	if s.LastActivity.IsZero() {
		return false
	}
	return now.Sub(s.LastActivity) > ttl
}
