package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// SessionDirectory maps a client identifier to its dialogue session. An
// inactive session is handed back already reset to Idle, so the engine
// never sees a stale stage.
type SessionDirectory interface {
	GetOrCreate(ctx context.Context, sessionID, contact string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Reset(ctx context.Context, sessionID string) error
}

const sessionKeyPrefix = "session:"

func sessionKey(id string) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, id)
}

// RedisSessionStore keeps sessions in Redis with a sliding TTL equal to
// the inactivity threshold, so expiry and reset coincide.
type RedisSessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	now    func() time.Time
}

// NewRedisSessionStore creates a session directory backed by Redis.
func NewRedisSessionStore(redisClient *redis.Client, ttl time.Duration) *RedisSessionStore {
	if redisClient == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisSessionStore{
		redis:  redisClient,
		ttl:    ttl,
		tracer: otel.Tracer("bellabot.internal.conversation.sessions"),
		now:    time.Now,
	}
}

func (s *RedisSessionStore) GetOrCreate(ctx context.Context, sessionID, contact string) (*Session, error) {
	if sessionID == "" {
		return nil, errors.New("conversation: session id required")
	}
	ctx, span := s.tracer.Start(ctx, "conversation.sessions.get_or_create")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return s.fresh(sessionID, contact), nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: decode session: %w", err)
	}
	if session.Expired(s.now(), s.ttl) {
		session.Reset(s.now())
	}
	if contact != "" {
		session.Contact = contact
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *Session) error {
	if session == nil || session.SessionID == "" {
		return errors.New("conversation: session with id required")
	}
	ctx, span := s.tracer.Start(ctx, "conversation.sessions.save")
	defer span.End()

	session.LastActivity = s.now()
	data, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: encode session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(session.SessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: persist session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Reset(ctx context.Context, sessionID string) error {
	session, err := s.GetOrCreate(ctx, sessionID, "")
	if err != nil {
		return err
	}
	session.Reset(s.now())
	return s.Save(ctx, session)
}

func (s *RedisSessionStore) fresh(sessionID, contact string) *Session {
	return &Session{
		SessionID:    sessionID,
		Contact:      contact,
		Stage:        StageIdle,
		LastActivity: s.now(),
	}
}

// MemorySessionStore is the in-process session directory used by the
// terminal bot and by tests. Sessions are reset in place, never deleted.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates an in-memory session directory.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *MemorySessionStore) WithClock(now func() time.Time) *MemorySessionStore {
	s.now = now
	return s
}

func (s *MemorySessionStore) GetOrCreate(ctx context.Context, sessionID, contact string) (*Session, error) {
	if sessionID == "" {
		return nil, errors.New("conversation: session id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		session = &Session{
			SessionID:    sessionID,
			Contact:      contact,
			Stage:        StageIdle,
			LastActivity: s.now(),
		}
		s.sessions[sessionID] = session
	}
	if session.Expired(s.now(), s.ttl) {
		session.Reset(s.now())
	}
	if contact != "" {
		session.Contact = contact
	}
	copied := *session
	return &copied, nil
}

func (s *MemorySessionStore) Save(ctx context.Context, session *Session) error {
	if session == nil || session.SessionID == "" {
		return errors.New("conversation: session with id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	session.LastActivity = s.now()
	copied := *session
	s.sessions[session.SessionID] = &copied
	return nil
}

func (s *MemorySessionStore) Reset(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[sessionID]; ok {
		session.Reset(s.now())
	}
	return nil
}
