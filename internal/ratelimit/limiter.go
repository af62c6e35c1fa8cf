// Package ratelimit bounds per-session extraction volume with fixed
// one-hour windows.
//
// State is in-memory and process-local: it does not survive restarts and is
// not shared across horizontally scaled instances. Known scaling
// limitation; a shared cache backend would be needed for multi-instance
// deployments.
package ratelimit

import (
	"sync"
	"time"
)

// Defaults for the extraction budget.
const (
	DefaultMaxExtractions = 10
	DefaultWindow         = time.Hour
)

// anonymousSession buckets exchanges that arrive without a session id.
const anonymousSession = "anonymous"

// window tracks one session's budget within the current time window.
type window struct {
	count   int
	resetAt time.Time
}

// SessionLimiter caps how many extractions a session may trigger per
// window. Safe for concurrent use; the check-and-increment in Acquire is
// atomic per session key.
type SessionLimiter struct {
	mu       sync.Mutex
	sessions map[string]*window
	max      int
	interval time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewSessionLimiter creates a limiter allowing max extractions per
// interval. Non-positive arguments fall back to the defaults.
func NewSessionLimiter(max int, interval time.Duration) *SessionLimiter {
	if max <= 0 {
		max = DefaultMaxExtractions
	}
	if interval <= 0 {
		interval = DefaultWindow
	}
	return &SessionLimiter{
		sessions: make(map[string]*window),
		max:      max,
		interval: interval,
		now:      time.Now,
	}
}

// Acquire checks the session's budget and consumes one slot in a single
// critical section. Returns false when the session is over its cap for the
// current window.
func (l *SessionLimiter) Acquire(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.current(sessionID)
	if w.count >= l.max {
		return false
	}
	w.count++
	return true
}

// CanExtract reports whether the session has budget left without consuming
// any. Paired with RecordExtraction this is only approximately enforcing
// under concurrency; Acquire is the atomic form.
func (l *SessionLimiter) CanExtract(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current(sessionID).count < l.max
}

// RecordExtraction consumes one slot unconditionally.
func (l *SessionLimiter) RecordExtraction(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current(sessionID).count++
}

// Remaining returns the session's leftover budget in the current window.
func (l *SessionLimiter) Remaining(sessionID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	left := l.max - l.current(sessionID).count
	if left < 0 {
		return 0
	}
	return left
}

// Prune drops expired session windows to bound map growth. Callers may run
// it periodically; correctness never depends on it since current() resets
// stale windows lazily.
func (l *SessionLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, w := range l.sessions {
		if now.After(w.resetAt) {
			delete(l.sessions, id)
		}
	}
}

// current returns the session's live window, resetting it when the window
// boundary has passed. Caller must hold the mutex.
func (l *SessionLimiter) current(sessionID string) *window {
	if sessionID == "" {
		sessionID = anonymousSession
	}

	now := l.now()
	w, ok := l.sessions[sessionID]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(l.interval)}
		l.sessions[sessionID] = w
	}
	return w
}
