package seatmap

import (
	"context"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

// SeatMap is one interactive seat-map instance: a venue, its own
// viewport and colour cache, and a bridge to the booking cart.  Like
// Viewport it is meant to be driven from a single goroutine.
type SeatMap struct {
	venue     *model.Venue
	viewport  *Viewport
	colors    *ColorCache
	bridge    *Bridge
	onSection []func(sectionID string)
}

// New builds a seat map.  A nil bridge gets a standalone one.
func New(venue *model.Venue, bridge *Bridge) *SeatMap {
	if bridge == nil {
		bridge = NewBridge(venue, nil)
	}
	return &SeatMap{
		venue:    venue,
		viewport: NewViewport(),
		colors:   NewColorCache(),
		bridge:   bridge,
	}
}

// Venue returns the venue being displayed.
func (m *SeatMap) Venue() *model.Venue { return m.venue }

// SetVenue replaces the venue, e.g. after seat statuses changed.  Colours
// are recomputed for sections whose occupancy hash changed.
func (m *SeatMap) SetVenue(v *model.Venue) {
	m.venue = v
	m.bridge.SetVenue(v)
}

// Viewport returns the seat map's viewport controller.
func (m *SeatMap) Viewport() *Viewport { return m.viewport }

// Bridge returns the selection bridge.
func (m *SeatMap) Bridge() *Bridge { return m.bridge }

// Colors returns the colour cache.
func (m *SeatMap) Colors() *ColorCache { return m.colors }

// OnSectionClick registers a section-click callback.
func (m *SeatMap) OnSectionClick(fn func(sectionID string)) {
	m.onSection = append(m.onSection, fn)
}

// Frame renders the current state.
func (m *SeatMap) Frame(ctx context.Context) (Scene, error) {
	sel, err := m.bridge.Selection(ctx)
	if err != nil {
		return Scene{}, err
	}
	w, h := m.viewport.Size()
	return Render(Input{
		Venue:     m.venue,
		Transform: m.viewport.Transform(),
		Width:     w,
		Height:    h,
		Selection: sel,
		Colors:    m.colors,
	}), nil
}

// ClickResult reports what a click did.
type ClickResult struct {
	Hit       Hit             `json:"hit"`
	Matched   bool            `json:"matched"`
	Selection *SelectionEvent `json:"selection,omitempty"`
	Focused   bool            `json:"focused,omitempty"`
}

// Click handles a click at screen point (x, y).  Seats toggle through
// the bridge when available or already selected; other seats are
// ignored.  Sections fire the section callbacks and, at the section
// tier, focus the viewport on the section.
func (m *SeatMap) Click(ctx context.Context, x, y float64) (ClickResult, error) {
	scene, err := m.Frame(ctx)
	if err != nil {
		return ClickResult{}, err
	}
	hit, ok := scene.HitTest(x, y)
	if !ok {
		return ClickResult{}, nil
	}
	res := ClickResult{Hit: hit, Matched: true}

	switch hit.Target {
	case TargetSeat:
		if !hit.Interactive {
			return res, nil
		}
		ev, emitted, err := m.bridge.Toggle(ctx, hit.Seat)
		if err != nil {
			return res, err
		}
		if emitted {
			res.Selection = &ev
		}
	case TargetSection:
		for _, fn := range m.onSection {
			fn(hit.Section)
		}
		if scene.Tier == TierSection {
			if sec, ok := m.venue.Section(hit.Section); ok {
				m.viewport.FocusSection(sec.ID, sec.X, sec.Y)
				res.Focused = true
			}
		}
	}
	return res, nil
}
