package relay

import (
	"sync"

	"github.com/mkarpenko/livetrack/internal/apperrors"
)

type LatLng struct {
	Lat float64
	Lng float64
}

// Session binds a live connection to a verified identity.
// It exists only after a successful identify handshake
type Session struct {
	ConnID   string
	UserID   int64
	Role     string
	TargetID string

	// Last location reported on this connection, nil until the first update
	LastLocation *LatLng
}

// Registry is the in-memory connection registry.
// All mutations and the broadcast scan are serialized behind one mutex,
// and sessions are handed out by value so readers never observe torn state
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Bind creates and stores a session for the connection.
// Re-identify replaces the previous session, it is not an error
func (r *Registry) Bind(connID string, userID int64, role string, targetID string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := &Session{
		ConnID:   connID,
		UserID:   userID,
		Role:     role,
		TargetID: targetID,
	}
	r.sessions[connID] = session

	return *session
}

// UpdateLocation stores the last known location of a bound connection
func (r *Registry) UpdateLocation(connID string, lat float64, lng float64) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[connID]
	if !ok {
		return Session{}, apperrors.ErrSessionNotFound
	}

	session.LastLocation = &LatLng{Lat: lat, Lng: lng}
	return *session, nil
}

// FindByUserID returns every session bound to the user, zero or more
func (r *Registry) FindByUserID(userID int64) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []Session
	for _, session := range r.sessions {
		if session.UserID == userID {
			found = append(found, *session)
		}
	}

	return found
}

// Remove drops the session of a closed connection, idempotent
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, connID)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
