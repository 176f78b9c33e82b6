package model

import "sort"

// Section is a priced seating block positioned in venue space.  X and Y
// locate the section origin; Width and Height are optional (zero means
// "not specified") and Rotation is in degrees about the origin.
type Section struct {
	ID       string  `json:"id" yaml:"id" msgpack:"id"`
	Name     string  `json:"name" yaml:"name" msgpack:"name"`
	Price    float64 `json:"price" yaml:"price" msgpack:"price"`
	X        float64 `json:"x" yaml:"x" msgpack:"x"`
	Y        float64 `json:"y" yaml:"y" msgpack:"y"`
	Width    float64 `json:"width,omitempty" yaml:"width" msgpack:"width,omitempty"`
	Height   float64 `json:"height,omitempty" yaml:"height" msgpack:"height,omitempty"`
	Rotation float64 `json:"rotation,omitempty" yaml:"rotation" msgpack:"rotation,omitempty"`
	Seats    []Seat  `json:"seats" yaml:"seats" msgpack:"seats"`
}

// Row is a derived grouping of a section's seats sharing a row label.
// Seats are ordered by SeatInRow.
type Row struct {
	Label string
	Seats []Seat
}

// Size returns the section's width and height, substituting def for
// any dimension that was not specified.
func (s *Section) Size(def float64) (float64, float64) {
	w, h := s.Width, s.Height
	if w <= 0 {
		w = def
	}
	if h <= 0 {
		h = def
	}
	return w, h
}

// Rows groups the section's seats by row label.  Labels are sorted
// lexicographically and seats within a row by their in-row position,
// which yields a stable drawing order.
func (s *Section) Rows() []Row {
	byLabel := make(map[string][]Seat)
	order := make([]string, 0)
	for _, seat := range s.Seats {
		if _, ok := byLabel[seat.RowNumber]; !ok {
			order = append(order, seat.RowNumber)
		}
		byLabel[seat.RowNumber] = append(byLabel[seat.RowNumber], seat)
	}
	sort.Strings(order)
	rows := make([]Row, 0, len(order))
	for _, label := range order {
		seats := byLabel[label]
		sort.SliceStable(seats, func(i, j int) bool { return seats[i].SeatInRow < seats[j].SeatInRow })
		rows = append(rows, Row{Label: label, Seats: seats})
	}
	return rows
}

// UnavailableCount returns how many seats are sold or pending.
func UnavailableCount(seats []Seat) int {
	n := 0
	for _, seat := range seats {
		if seat.Status.Unavailable() {
			n++
		}
	}
	return n
}
