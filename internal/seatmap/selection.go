package seatmap

import (
	"context"
	"fmt"
	"sort"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

// Selection answers membership queries against the booking cart's
// selected seats.  The renderer only reads it.
type Selection interface {
	Contains(seatID string) bool
}

// SeatSet is a plain set of seat IDs.
type SeatSet map[string]struct{}

// NewSeatSet builds a set from IDs.
func NewSeatSet(ids ...string) SeatSet {
	s := make(SeatSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s SeatSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in sorted order.
func (s SeatSet) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DomainSeat is a seat as the booking cart understands it.
type DomainSeat struct {
	SeatID      string  `json:"seat_id"`
	SectionID   string  `json:"section_id"`
	SectionName string  `json:"section_name"`
	Row         string  `json:"row"`
	Number      int     `json:"number"`
	Price       float64 `json:"price"`
}

// SelectionKind is the direction of a toggle.
type SelectionKind string

const (
	Select   SelectionKind = "select"
	Deselect SelectionKind = "deselect"
)

// SelectionEvent is emitted for every seat toggle.
type SelectionEvent struct {
	Kind SelectionKind `json:"kind"`
	Seat DomainSeat    `json:"seat"`
}

// Cart is the booking-cart collaborator the bridge forwards toggles to.
type Cart interface {
	Add(ctx context.Context, seat DomainSeat) error
	Remove(ctx context.Context, seat DomainSeat) error
	SeatIDs(ctx context.Context) ([]string, error)
}

// SeatLister is implemented by carts that store the domain seat captured
// at add time.  The bridge then reports those seats, prices included,
// instead of resolving IDs against the current venue.
type SeatLister interface {
	Seats(ctx context.Context) ([]DomainSeat, error)
}

// Logger is the subset of a leveled logger the bridge needs.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// Bridge maps seat IDs coming from the renderer onto domain seats and
// forwards toggles to a Cart.  Without a cart it keeps a local set so a
// seat map works standalone.
type Bridge struct {
	venue     *model.Venue
	cart      Cart
	local     SeatSet
	listeners []func(SelectionEvent)
	log       Logger
}

// NewBridge returns a bridge over venue.  cart may be nil.
func NewBridge(venue *model.Venue, cart Cart) *Bridge {
	return &Bridge{venue: venue, cart: cart, local: SeatSet{}, log: log.New("seatmap")}
}

// SetLogger replaces the logger used for lookup misses.
func (b *Bridge) SetLogger(l Logger) { b.log = l }

// SetVenue swaps the venue used for lookups.
func (b *Bridge) SetVenue(v *model.Venue) { b.venue = v }

// OnSelect registers a listener for selection events.
func (b *Bridge) OnSelect(fn func(SelectionEvent)) { b.listeners = append(b.listeners, fn) }

// Lookup resolves a seat ID to its domain representation.
func (b *Bridge) Lookup(seatID string) (DomainSeat, bool) {
	if b.venue == nil {
		return DomainSeat{}, false
	}
	sec, seat, ok := b.venue.FindSeat(seatID)
	if !ok {
		return DomainSeat{}, false
	}
	return DomainSeat{
		SeatID:      seat.ID,
		SectionID:   sec.ID,
		SectionName: sec.Name,
		Row:         seat.RowNumber,
		Number:      seat.SeatInRow,
		Price:       sec.Price,
	}, true
}

// Selection returns the current selection set, read from the cart when
// one is attached.
func (b *Bridge) Selection(ctx context.Context) (SeatSet, error) {
	if b.cart == nil {
		return NewSeatSet(b.local.IDs()...), nil
	}
	ids, err := b.cart.SeatIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	return NewSeatSet(ids...), nil
}

// Seats returns the selected domain seats.  A SeatLister cart answers
// directly; otherwise IDs are resolved against the venue and IDs that no
// longer exist are skipped.
func (b *Bridge) Seats(ctx context.Context) ([]DomainSeat, error) {
	if l, ok := b.cart.(SeatLister); ok {
		seats, err := l.Seats(ctx)
		if err != nil {
			return nil, fmt.Errorf("read cart: %w", err)
		}
		return seats, nil
	}
	set, err := b.Selection(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DomainSeat, 0, len(set))
	for _, id := range set.IDs() {
		if ds, ok := b.Lookup(id); ok {
			out = append(out, ds)
		}
	}
	return out, nil
}

// Toggle selects or deselects a seat depending on whether it is in the
// current selection.  Unknown IDs are logged and ignored: ok is false
// and no event is emitted.
func (b *Bridge) Toggle(ctx context.Context, seatID string) (ev SelectionEvent, ok bool, err error) {
	ds, found := b.Lookup(seatID)
	if !found {
		b.log.Warnf("toggle for unknown seat %q ignored", seatID)
		return SelectionEvent{}, false, nil
	}
	set, err := b.Selection(ctx)
	if err != nil {
		return SelectionEvent{}, false, err
	}

	ev = SelectionEvent{Kind: Select, Seat: ds}
	if set.Contains(seatID) {
		ev.Kind = Deselect
	}
	switch {
	case b.cart == nil && ev.Kind == Select:
		b.local[seatID] = struct{}{}
	case b.cart == nil:
		delete(b.local, seatID)
	case ev.Kind == Select:
		err = b.cart.Add(ctx, ds)
	default:
		err = b.cart.Remove(ctx, ds)
	}
	if err != nil {
		return SelectionEvent{}, false, fmt.Errorf("%s seat %s: %w", ev.Kind, seatID, err)
	}
	for _, fn := range b.listeners {
		fn(ev)
	}
	return ev, true, nil
}
