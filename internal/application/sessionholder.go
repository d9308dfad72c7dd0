package application

import (
	"sync"
	"time"

	"github.com/ericfisherdev/fieldorders/internal/domain/model"
)

// SessionHolder keeps the bridge's current session. A login replaces it and
// a logout clears it; handlers read a copy so a concurrent login never
// changes the token of a request already in progress.
type SessionHolder struct {
	mu      sync.RWMutex
	session *model.Session
}

// NewSessionHolder creates a holder. initial may be nil.
func NewSessionHolder(initial *model.Session) *SessionHolder {
	h := &SessionHolder{}
	if initial != nil {
		s := *initial
		h.session = &s
	}
	return h
}

// Get returns a copy of the current session and whether one is held.
func (h *SessionHolder) Get() (model.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return model.Session{}, false
	}
	return *h.session, true
}

// Active returns the current session unless none is held or it is known to
// have expired at now.
func (h *SessionHolder) Active(now time.Time) (model.Session, bool) {
	s, ok := h.Get()
	if !ok || s.Expired(now) {
		return model.Session{}, false
	}
	return s, true
}

// Replace swaps in a new session.
func (h *SessionHolder) Replace(s model.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session = &s
}

// Clear drops the current session.
func (h *SessionHolder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session = nil
}
