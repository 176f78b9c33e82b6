package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

// venueFile is the on-disk YAML shape of a venue.  Sections may list
// their seats explicitly or use the rows/seats_per_row shorthand, in
// which case seats are generated as "<section>-<row><n>".
type venueFile struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Sections []sectionFile `yaml:"sections"`
}

type sectionFile struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Price       float64      `yaml:"price"`
	X           float64      `yaml:"x"`
	Y           float64      `yaml:"y"`
	Width       float64      `yaml:"width"`
	Height      float64      `yaml:"height"`
	Rotation    float64      `yaml:"rotation"`
	Rows        int          `yaml:"rows"`
	SeatsPerRow int          `yaml:"seats_per_row"`
	Sold        []string     `yaml:"sold"`
	Pending     []string     `yaml:"pending"`
	Seats       []model.Seat `yaml:"seats"`
}

// ParseVenue decodes and validates a single YAML venue document.
func ParseVenue(r io.Reader) (*model.Venue, error) {
	var f venueFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVenue, err)
	}
	return f.build()
}

func (f venueFile) build() (*model.Venue, error) {
	if strings.TrimSpace(f.ID) == "" {
		return nil, fmt.Errorf("%w: missing venue id", ErrInvalidVenue)
	}
	v := &model.Venue{ID: f.ID, Name: f.Name}
	seen := map[string]bool{}
	sections := map[string]bool{}
	for _, sf := range f.Sections {
		if sf.ID == "" {
			return nil, fmt.Errorf("%w: section without id in venue %s", ErrInvalidVenue, f.ID)
		}
		if sections[sf.ID] {
			return nil, fmt.Errorf("%w: duplicate section %s", ErrInvalidVenue, sf.ID)
		}
		sections[sf.ID] = true

		sec := model.Section{
			ID: sf.ID, Name: sf.Name, Price: sf.Price,
			X: sf.X, Y: sf.Y, Width: sf.Width, Height: sf.Height, Rotation: sf.Rotation,
		}
		if sec.Name == "" {
			sec.Name = "Section " + sf.ID
		}

		seats := append([]model.Seat(nil), sf.Seats...)
		for row := 0; row < sf.Rows; row++ {
			label := model.RowLabel(row)
			for n := 1; n <= sf.SeatsPerRow; n++ {
				seats = append(seats, model.Seat{
					ID:        fmt.Sprintf("%s-%s%d", sf.ID, label, n),
					SectionID: sf.ID,
					RowNumber: label,
					SeatInRow: n,
				})
			}
		}

		byID := map[string]int{}
		taken := map[string]map[int]bool{}
		for i := range seats {
			s := &seats[i]
			if s.ID == "" {
				return nil, fmt.Errorf("%w: seat without id in section %s", ErrInvalidVenue, sf.ID)
			}
			if seen[s.ID] {
				return nil, fmt.Errorf("%w: duplicate seat %s", ErrInvalidVenue, s.ID)
			}
			seen[s.ID] = true
			if s.SectionID == "" {
				s.SectionID = sf.ID
			} else if s.SectionID != sf.ID {
				return nil, fmt.Errorf("%w: seat %s declares section %s inside %s", ErrInvalidVenue, s.ID, s.SectionID, sf.ID)
			}
			s.RowNumber = model.NormalizeRowLabel(s.RowNumber)
			if s.RowNumber == "" {
				return nil, fmt.Errorf("%w: seat %s has no row", ErrInvalidVenue, s.ID)
			}
			if taken[s.RowNumber] == nil {
				taken[s.RowNumber] = map[int]bool{}
			}
			if taken[s.RowNumber][s.SeatInRow] {
				return nil, fmt.Errorf("%w: seat %s repeats row %s number %d in section %s",
					ErrInvalidVenue, s.ID, s.RowNumber, s.SeatInRow, sf.ID)
			}
			taken[s.RowNumber][s.SeatInRow] = true
			if s.Status == "" {
				s.Status = model.SeatAvailable
			} else if !s.Status.Valid() {
				return nil, fmt.Errorf("%w: seat %s has status %q", ErrInvalidVenue, s.ID, s.Status)
			}
			byID[s.ID] = i
		}

		mark := func(ids []string, st model.SeatStatus) error {
			for _, id := range ids {
				i, ok := byID[id]
				if !ok {
					return fmt.Errorf("%w: %s seat %s not in section %s", ErrInvalidVenue, st, id, sf.ID)
				}
				seats[i].Status = st
			}
			return nil
		}
		if err := mark(sf.Sold, model.SeatSold); err != nil {
			return nil, err
		}
		if err := mark(sf.Pending, model.SeatPending); err != nil {
			return nil, err
		}

		sec.Seats = seats
		v.Sections = append(v.Sections, sec)
	}
	return v, nil
}

// FileVenueStore serves venues loaded from YAML fixtures.  Stored venues
// are never mutated in place: a status update swaps in a patched copy so
// a *model.Venue handed out earlier stays consistent for its reader.
type FileVenueStore struct {
	mu     sync.RWMutex
	venues map[string]*model.Venue
}

// NewFileVenueStore builds a store from already parsed venues.
func NewFileVenueStore(venues ...*model.Venue) *FileVenueStore {
	s := &FileVenueStore{venues: make(map[string]*model.Venue, len(venues))}
	for _, v := range venues {
		s.venues[v.ID] = v
	}
	return s
}

// LoadVenueDir parses every *.yaml / *.yml file in dir.
func LoadVenueDir(dir string) (*FileVenueStore, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	store := NewFileVenueStore()
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		v, err := loadVenueFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, dup := store.venues[v.ID]; dup {
			return nil, fmt.Errorf("%s: %w: duplicate venue %s", path, ErrInvalidVenue, v.ID)
		}
		store.venues[v.ID] = v
	}
	return store, nil
}

func loadVenueFile(path string) (*model.Venue, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return ParseVenue(fh)
}

// List returns venue summaries ordered by ID.
func (s *FileVenueStore) List(_ context.Context) ([]VenueSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]VenueSummary, 0, len(s.venues))
	for _, v := range s.venues {
		out = append(out, VenueSummary{ID: v.ID, Name: v.Name, SectionCount: len(v.Sections), SeatCount: v.SeatCount()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns the venue with the given ID.  Callers must treat the
// result as read-only.
func (s *FileVenueStore) Get(_ context.Context, id string) (*model.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.venues[id]
	if !ok {
		return nil, ErrVenueNotFound
	}
	return v, nil
}

// UpdateSeatStatus replaces the venue with a copy carrying the new status.
func (s *FileVenueStore) UpdateSeatStatus(_ context.Context, venueID, seatID string, status model.SeatStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[venueID]
	if !ok {
		return ErrVenueNotFound
	}
	next := v.Clone()
	_, seat, ok := next.FindSeat(seatID)
	if !ok {
		return ErrSeatNotFound
	}
	seat.Status = status
	s.venues[venueID] = next
	return nil
}
