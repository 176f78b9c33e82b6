package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/venue-seatmap/internal/model"
	"github.com/iliyamo/venue-seatmap/internal/seatmap"
)

// EventType names an input event forwarded by the hosting page.
type EventType string

const (
	EventWheel        EventType = "wheel"
	EventPointerDown  EventType = "pointer_down"
	EventPointerMove  EventType = "pointer_move"
	EventPointerUp    EventType = "pointer_up"
	EventPointerLeave EventType = "pointer_leave"
	EventZoomIn       EventType = "zoom_in"
	EventZoomOut      EventType = "zoom_out"
	EventReset        EventType = "reset"
	EventResize       EventType = "resize"
	EventClick        EventType = "click"
)

func (t EventType) valid() bool {
	switch t {
	case EventWheel, EventPointerDown, EventPointerMove, EventPointerUp, EventPointerLeave,
		EventZoomIn, EventZoomOut, EventReset, EventResize, EventClick:
		return true
	}
	return false
}

// Event is one input event in screen coordinates.  Delta is only read for
// wheel events, Width/Height only for resize.
type Event struct {
	Type   EventType `json:"type"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Delta  float64   `json:"delta,omitempty"`
	Width  float64   `json:"width,omitempty"`
	Height float64   `json:"height,omitempty"`
}

// Result is the state after a batch of events plus what the batch caused.
type Result struct {
	Transform  seatmap.Transform        `json:"transform"`
	Tier       seatmap.Tier             `json:"tier"`
	Focus      string                   `json:"focus,omitempty"`
	Selections []seatmap.SelectionEvent `json:"selections"`
	Sections   []string                 `json:"sections"`
}

// Session is one viewer's seat map.  Events for a session are applied
// under its mutex so the viewport and the selection bridge each keep a
// single writer even when requests overlap.
type Session struct {
	ID      string
	VenueID string
	Owner   string
	Created time.Time

	maxW, maxH float64

	mu         sync.Mutex
	m          *seatmap.SeatMap
	lastActive time.Time

	// collected while a batch runs
	clicked  []string
	selected []seatmap.SelectionEvent
}

func newSession(id string, opts Options, now time.Time) *Session {
	bridge := seatmap.NewBridge(opts.Venue, opts.Cart)
	if opts.Logger != nil {
		bridge.SetLogger(opts.Logger)
	}
	s := &Session{
		ID:         id,
		VenueID:    opts.Venue.ID,
		Owner:      opts.Owner,
		Created:    now,
		maxW:       opts.MaxWidth,
		maxH:       opts.MaxHeight,
		m:          seatmap.New(opts.Venue, bridge),
		lastActive: now,
	}
	s.m.Viewport().Resize(opts.Width, opts.Height)
	s.m.OnSectionClick(func(id string) { s.clicked = append(s.clicked, id) })
	bridge.OnSelect(func(ev seatmap.SelectionEvent) { s.selected = append(s.selected, ev) })
	for _, fn := range opts.OnSelect {
		bridge.OnSelect(func(ev seatmap.SelectionEvent) { fn(s, ev) })
	}
	return s
}

// Apply runs events strictly in order.  An unknown event type or a resize
// past the frame limit rejects the whole batch before anything is applied.
// A cart failure stops the batch at the failing click; events before it
// stay applied.
func (s *Session) Apply(ctx context.Context, events []Event) (Result, error) {
	for i, ev := range events {
		if !ev.Type.valid() {
			return Result{}, fmt.Errorf("%w: event %d has type %q", ErrInvalidEvent, i, ev.Type)
		}
		if ev.Type == EventResize && !fits(ev.Width, ev.Height, s.maxW, s.maxH) {
			return Result{}, fmt.Errorf("%w: event %d resizes to %gx%g", ErrFrameTooLarge, i, ev.Width, ev.Height)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicked, s.selected = nil, nil

	vp := s.m.Viewport()
	for _, ev := range events {
		switch ev.Type {
		case EventWheel:
			vp.Wheel(ev.Delta, ev.X, ev.Y)
		case EventPointerDown:
			vp.PointerDown(ev.X, ev.Y)
		case EventPointerMove:
			vp.PointerMove(ev.X, ev.Y)
		case EventPointerUp:
			vp.PointerUp()
		case EventPointerLeave:
			vp.PointerLeave()
		case EventZoomIn:
			vp.ZoomIn()
		case EventZoomOut:
			vp.ZoomOut()
		case EventReset:
			vp.Reset()
		case EventResize:
			vp.Resize(ev.Width, ev.Height)
		case EventClick:
			if _, err := s.m.Click(ctx, ev.X, ev.Y); err != nil {
				return s.result(), err
			}
		}
	}
	return s.result(), nil
}

func (s *Session) result() Result {
	vp := s.m.Viewport()
	r := Result{
		Transform:  vp.Transform(),
		Tier:       vp.Tier(),
		Focus:      vp.Focus(),
		Selections: s.selected,
		Sections:   s.clicked,
	}
	if r.Selections == nil {
		r.Selections = []seatmap.SelectionEvent{}
	}
	if r.Sections == nil {
		r.Sections = []string{}
	}
	return r
}

// State returns the current viewport state without applying anything.
func (s *Session) State() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicked, s.selected = nil, nil
	return s.result()
}

// Frame renders the session's current view.
func (s *Session) Frame(ctx context.Context) (seatmap.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Frame(ctx)
}

// Selection returns the selected seats as domain seats.
func (s *Session) Selection(ctx context.Context) ([]seatmap.DomainSeat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Bridge().Seats(ctx)
}

// SetVenue swaps in an updated venue, e.g. after a seat status change.
// The viewport is kept.
func (s *Session) SetVenue(v *model.Venue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.SetVenue(v)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

// LastActive reports when the session was last used.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
