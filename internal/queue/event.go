// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// SelectionQueueName is the durable queue carrying seat toggles.
const SelectionQueueName = "seat.selection"

// SeatSelectionEvent is published every time a viewer selects or deselects
// a seat.  It carries enough of the seat to be logged or fed into
// analytics without loading the venue again.
type SeatSelectionEvent struct {
	Kind        string  `json:"kind"` // "select" or "deselect"
	SessionID   string  `json:"session_id"`
	Owner       string  `json:"owner"`
	VenueID     string  `json:"venue_id"`
	SeatID      string  `json:"seat_id"`
	SectionID   string  `json:"section_id"`
	SectionName string  `json:"section_name"`
	Row         string  `json:"row"`
	Number      int     `json:"number"`
	Price       float64 `json:"price"`
	OccurredAt  string  `json:"occurred_at"` // RFC3339, UTC
}
