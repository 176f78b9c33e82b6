package model

import "fmt"

// SeatStatus is the occupancy state of a seat as reported by the venue
// data source.  The renderer never changes it; the client-local
// "selected" overlay lives in the selection set instead.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatSold      SeatStatus = "sold"
	SeatPending   SeatStatus = "pending"
)

// Valid reports whether s is one of the known statuses.
func (s SeatStatus) Valid() bool {
	switch s {
	case SeatAvailable, SeatSold, SeatPending:
		return true
	}
	return false
}

// Unavailable reports whether the seat counts against availability
// (sold or pending).
func (s SeatStatus) Unavailable() bool {
	return s == SeatSold || s == SeatPending
}

// ParseSeatStatus converts a raw string into a SeatStatus.
func ParseSeatStatus(raw string) (SeatStatus, error) {
	s := SeatStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid seat status %q", raw)
	}
	return s, nil
}

// Seat describes a single seat inside a section.  Seats are uniquely
// identified by ID across the whole venue; RowNumber and SeatInRow
// position the seat inside its section.
//
// Fields:
//  ID        – venue-wide unique identifier.
//  SectionID – section to which this seat belongs.
//  RowNumber – row label (e.g. "A"); rows are derived by grouping on it.
//  SeatInRow – position within the row, ordering seats left to right.
//  Status    – occupancy status (available, sold, pending).
type Seat struct {
	ID        string     `json:"id" yaml:"id" msgpack:"id"`
	SectionID string     `json:"section_id" yaml:"section_id" msgpack:"section_id"`
	RowNumber string     `json:"row_number" yaml:"row" msgpack:"row_number"`
	SeatInRow int        `json:"seat_in_row" yaml:"number" msgpack:"seat_in_row"`
	Status    SeatStatus `json:"status" yaml:"status" msgpack:"status"`
}

// Label renders a seat the way tickets print it, e.g. "A12".
func (s Seat) Label() string {
	return fmt.Sprintf("%s%d", s.RowNumber, s.SeatInRow)
}
