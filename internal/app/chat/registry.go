package chat

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatlink/internal/pkg/logx"
)

// Entry is what the registry knows about a live session.
type Entry struct {
	UserID      int64
	DisplayName string
	Session     Session
	ConnectedAt time.Time
}

// Registry maps a user to the single session currently allowed to act for them.
// Implementations must make every mutation atomic with respect to lookups.
type Registry interface {
	// Register makes s the live session for userID. A different session already holding
	// the slot receives duplicate-connection and is closed; it is returned, or nil.
	Register(userID int64, s Session, displayName string) Session

	// Unregister removes userID only while sessionID still holds the slot.
	// It reports whether the mapping was removed.
	Unregister(userID int64, sessionID string) bool

	Lookup(userID int64) (Session, bool)
	IsOnline(userID int64) bool

	// Entry resolves a session id back to its owner.
	Entry(sessionID string) (Entry, bool)

	// Range calls fn for every live entry until fn returns false.
	Range(fn func(Entry) bool)

	Count() int
}

// MemoryRegistry is the in-process Registry.
type MemoryRegistry struct {
	mu        sync.RWMutex
	byUser    map[int64]Entry
	bySession map[string]int64
	logger    zerolog.Logger
}

// NewMemoryRegistry returns an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byUser:    make(map[int64]Entry),
		bySession: make(map[string]int64),
		logger:    logx.Component("registry"),
	}
}

func (r *MemoryRegistry) Register(userID int64, s Session, displayName string) Session {
	entry := Entry{
		UserID:      userID,
		DisplayName: displayName,
		Session:     s,
		ConnectedAt: time.Now(),
	}

	r.mu.Lock()
	prev, had := r.byUser[userID]
	r.byUser[userID] = entry
	r.bySession[s.ID()] = userID
	if had && prev.Session.ID() != s.ID() {
		delete(r.bySession, prev.Session.ID())
	}
	r.mu.Unlock()

	if !had || prev.Session.ID() == s.ID() {
		return nil
	}

	// The slot already belongs to s, so nothing the old session does from here on can be
	// routed or accepted.
	r.logger.Info().
		Int64("user_id", userID).
		Str("old_session", prev.Session.ID()).
		Str("new_session", s.ID()).
		Msg("session replaced by a newer connection")

	if err := prev.Session.Send(EventDuplicateConnection, DuplicateConnectionPayload{
		Message: "Signed in from another location. This connection has been closed.",
	}); err != nil {
		r.logger.Debug().Err(err).Str("session_id", prev.Session.ID()).Msg("duplicate-connection notice not queued")
	}
	prev.Session.Close(CloseSessionReplaced, "session replaced")

	return prev.Session
}

func (r *MemoryRegistry) Unregister(userID int64, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byUser[userID]
	if !ok || current.Session.ID() != sessionID {
		if owner, stale := r.bySession[sessionID]; stale && owner == userID {
			delete(r.bySession, sessionID)
		}

		r.logger.Debug().
			Int64("user_id", userID).
			Str("session_id", sessionID).
			Msg("ignoring unregister for stale session")
		return false
	}

	delete(r.byUser, userID)
	delete(r.bySession, sessionID)
	return true
}

func (r *MemoryRegistry) Lookup(userID int64) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byUser[userID]
	if !ok {
		return nil, false
	}
	return e.Session, true
}

func (r *MemoryRegistry) IsOnline(userID int64) bool {
	_, ok := r.Lookup(userID)
	return ok
}

func (r *MemoryRegistry) Entry(sessionID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.bySession[sessionID]
	if !ok {
		return Entry{}, false
	}
	e, ok := r.byUser[userID]
	if !ok || e.Session.ID() != sessionID {
		return Entry{}, false
	}
	return e, true
}

func (r *MemoryRegistry) Range(fn func(Entry) bool) {
	r.mu.RLock()
	entries := make([]Entry, 0, len(r.byUser))
	for _, e := range r.byUser {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	for _, e := range entries {
		if !fn(e) {
			return
		}
	}
}

func (r *MemoryRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
