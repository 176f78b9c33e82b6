// Package session hosts independent seat map instances, one per viewer.
// Each session owns its viewport and selection bridge; the venue layout is
// shared read-only between sessions of the same venue.
package session

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/venue-seatmap/internal/model"
	"github.com/iliyamo/venue-seatmap/internal/seatmap"
)

// DefaultMaxSessions bounds concurrent sessions to keep memory in check.
const DefaultMaxSessions = 10000

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the manager is full.
	ErrTooManySessions = errors.New("too many sessions")
	// ErrInvalidEvent is returned for an event batch with an unknown type.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrFrameTooLarge is returned when a viewport exceeds the frame limit.
	ErrFrameTooLarge = errors.New("frame too large")
)

// Options configures a new session.
type Options struct {
	Venue  *model.Venue
	Owner  string       // cart owner; defaults to the session ID
	Cart   seatmap.Cart // nil keeps the selection inside the session
	Width  float64
	Height float64
	// MaxWidth and MaxHeight bound the viewport; zero means
	// seatmap.MaxFrameSide.
	MaxWidth  float64
	MaxHeight float64
	Logger    seatmap.Logger
	// OnSelect listeners run after every successful toggle.
	OnSelect []func(*Session, seatmap.SelectionEvent)
}

// Manager tracks live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	max      int
	now      func() time.Time
	log      *log.Logger
}

// NewManager creates an empty manager.  max <= 0 uses DefaultMaxSessions.
func NewManager(max int) *Manager {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &Manager{
		sessions: make(map[string]*Session),
		max:      max,
		now:      time.Now,
		log:      log.New("session"),
	}
}

// NewID returns a fresh session ID.  Callers that need the ID before the
// session exists (e.g. to key an anonymous cart) reserve one here and pass
// it to CreateWithID.
func NewID() string { return uuid.New().String() }

// Create starts a session with a new ID.
func (m *Manager) Create(opts Options) (*Session, error) {
	return m.CreateWithID(NewID(), opts)
}

// CreateWithID starts a session under id.
func (m *Manager) CreateWithID(id string, opts Options) (*Session, error) {
	if opts.Venue == nil {
		return nil, errors.New("session: venue is required")
	}
	if opts.Owner == "" {
		opts.Owner = id
	}
	opts.MaxWidth, opts.MaxHeight = frameLimit(opts.MaxWidth), frameLimit(opts.MaxHeight)
	if !fits(opts.Width, opts.Height, opts.MaxWidth, opts.MaxHeight) {
		return nil, fmt.Errorf("%w: %gx%g exceeds %gx%g", ErrFrameTooLarge, opts.Width, opts.Height, opts.MaxWidth, opts.MaxHeight)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) >= m.max {
		return nil, ErrTooManySessions
	}
	s := newSession(id, opts, m.now())
	m.sessions[id] = s
	m.log.Debugf("created session %s for venue %s", id, s.VenueID)
	return s, nil
}

// Get returns a session and marks it active.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(m.now())
	return s, nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(m.sessions, id)
	return s, nil
}

// ForVenue lists the sessions currently showing venueID.
func (m *Manager) ForVenue(venueID string) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Session
	for _, s := range m.sessions {
		if s.VenueID == venueID {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions removes sessions idle for longer than maxAge and
// returns how many were dropped.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.log.Infof("cleaned up %d idle sessions", n)
	}
	return n
}

func frameLimit(v float64) float64 {
	if v <= 0 || v > seatmap.MaxFrameSide {
		return seatmap.MaxFrameSide
	}
	return v
}

// fits is false for NaN sizes too.
func fits(w, h, maxW, maxH float64) bool {
	return w <= maxW && h <= maxH && !math.IsInf(w, -1) && !math.IsInf(h, -1)
}
