package services

import (
	"sync"
)

// SessionTracker remembers the latest hardware session observed per
// user, giving side effects at-most-once semantics per new session. The
// reconciler itself stays pure; this cell is held by the caller.
type SessionTracker struct {
	mu       sync.Mutex
	lastSeen map[string]string // uid -> "date/sessionKey"
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		lastSeen: make(map[string]string),
	}
}

// Advance records that the given session is now the latest for the user
// and reports whether it is new. Date and session keys sort lexically,
// so the combined marker orders chronologically.
func (t *SessionTracker) Advance(uid, date, sessionKey string) bool {
	marker := date + "/" + sessionKey

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lastSeen[uid] == marker {
		return false
	}
	t.lastSeen[uid] = marker
	return true
}

// Last returns the marker of the most recently observed session for a
// user, if any.
func (t *SessionTracker) Last(uid string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	marker, ok := t.lastSeen[uid]
	return marker, ok
}
