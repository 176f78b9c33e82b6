package model

// Venue is the static layout of a venue: an ordered list of sections,
// each carrying its seats.  It is read-only during a viewing session.
//
// Fields:
//  ID       – venue identifier.
//  Name     – display name.
//  Sections – sections in drawing order.
type Venue struct {
	ID       string    `json:"id" yaml:"id" msgpack:"id"`
	Name     string    `json:"name" yaml:"name" msgpack:"name"`
	Sections []Section `json:"sections" yaml:"sections" msgpack:"sections"`
}

// Section returns the section with the given ID.
func (v *Venue) Section(id string) (*Section, bool) {
	for i := range v.Sections {
		if v.Sections[i].ID == id {
			return &v.Sections[i], true
		}
	}
	return nil, false
}

// FindSeat looks a seat up by its venue-wide ID.  A linear scan over
// sections and seats is enough for venues of a few thousand seats.
func (v *Venue) FindSeat(id string) (*Section, *Seat, bool) {
	for i := range v.Sections {
		sec := &v.Sections[i]
		for j := range sec.Seats {
			if sec.Seats[j].ID == id {
				return sec, &sec.Seats[j], true
			}
		}
	}
	return nil, nil, false
}

// SeatCount returns the total number of seats in the venue.
func (v *Venue) SeatCount() int {
	n := 0
	for _, sec := range v.Sections {
		n += len(sec.Seats)
	}
	return n
}

// Clone returns a deep copy so callers can mutate seat statuses without
// touching a venue that may be shared with running sessions.
func (v *Venue) Clone() *Venue {
	out := &Venue{ID: v.ID, Name: v.Name, Sections: make([]Section, len(v.Sections))}
	for i, sec := range v.Sections {
		cp := sec
		cp.Seats = append([]Seat(nil), sec.Seats...)
		out.Sections[i] = cp
	}
	return out
}
