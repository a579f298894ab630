package conversation

import "sync"

// turnLocks serializes message processing per session. A session's turn
// runs to completion (including slow oracle calls) before the next inbound
// message for the same session is allowed to load it, so a stale save can
// never clobber a later transition.
type turnLocks struct {
	mu    sync.Mutex
	locks map[string]*turnLock
}

type turnLock struct {
	mu   sync.Mutex
	refs int
}

func newTurnLocks() *turnLocks {
	return &turnLocks{locks: make(map[string]*turnLock)}
}

// acquire blocks until the session's lock is held. Entries are refcounted
// so the map does not grow with every session ever seen.
func (t *turnLocks) acquire(sessionID string) *turnLock {
	t.mu.Lock()
	entry, ok := t.locks[sessionID]
	if !ok {
		entry = &turnLock{}
		t.locks[sessionID] = entry
	}
	entry.refs++
	t.mu.Unlock()

	entry.mu.Lock()
	return entry
}

func (t *turnLocks) release(sessionID string, entry *turnLock) {
	entry.mu.Unlock()

	t.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(t.locks, sessionID)
	}
	t.mu.Unlock()
}
