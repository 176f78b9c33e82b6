package seatmap

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

// Palette.
const (
	BaseColor     = "#4caf50"
	SoldColor     = "#f44336"
	PendingColor  = "#ffc107"
	SelectedColor = "#2196f3"
	DimColor      = "#e0e0e0"
	OutlineColor  = "#9e9e9e"
	LabelColor    = "#212121"

	// MinIntensity keeps fully booked blocks visible.
	MinIntensity = 0.4
	SoldOpacity  = 0.5
)

// Availability returns the share of seats that are neither sold nor
// pending.  An empty seat list counts as fully available.
func Availability(seats []model.Seat) float64 {
	if len(seats) == 0 {
		return 1
	}
	return 1 - float64(model.UnavailableCount(seats))/float64(len(seats))
}

// Intensity returns max(MinIntensity, availability).
func Intensity(seats []model.Seat) float64 {
	return math.Max(MinIntensity, Availability(seats))
}

// AvailabilityColor is BaseColor scaled by the seats' intensity.
func AvailabilityColor(seats []model.Seat) string {
	return ScaleHex(BaseColor, Intensity(seats))
}

// ScaleHex multiplies each channel of a #rrggbb colour by k, flooring
// the result.  Malformed input is returned unchanged.
func ScaleHex(hex string, k float64) string {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return hex
	}
	ch := func(c uint8) uint8 {
		v := math.Floor(float64(c) * k)
		return uint8(math.Min(255, math.Max(0, v)))
	}
	return fmt.Sprintf("#%02x%02x%02x", ch(r), ch(g), ch(b))
}

func parseHex(hex string) (r, g, b uint8, ok bool) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(n >> 16), uint8(n >> 8), uint8(n), true
}

// SeatColor returns the fill for a seat.  Selection overrides status.
func SeatColor(status model.SeatStatus, selected bool) string {
	if selected {
		return SelectedColor
	}
	switch status {
	case model.SeatSold:
		return SoldColor
	case model.SeatPending:
		return PendingColor
	default:
		return BaseColor
	}
}

type colorKey struct {
	section string
	row     string
}

type colorEntry struct {
	hash  uint64
	color string
}

// ColorCache memoizes availability colours per section and per row,
// keyed by section ID, row label and a hash of the seats' occupancy.
// Each key holds one entry; a changed hash replaces it.
type ColorCache struct {
	mu      sync.Mutex
	entries map[colorKey]colorEntry
	misses  int
}

// NewColorCache returns an empty cache.
func NewColorCache() *ColorCache {
	return &ColorCache{entries: make(map[colorKey]colorEntry)}
}

// SectionColor returns the availability colour of a whole section.
func (c *ColorCache) SectionColor(sec *model.Section) string {
	return c.lookup(colorKey{section: sec.ID}, sec.Seats)
}

// RowColor returns the availability colour of one row of a section.
func (c *ColorCache) RowColor(sectionID string, row model.Row) string {
	return c.lookup(colorKey{section: sectionID, row: row.Label}, row.Seats)
}

// Invalidate drops every entry belonging to a section.
func (c *ColorCache) Invalidate(sectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.section == sectionID {
			delete(c.entries, k)
		}
	}
}

// Misses returns how many colours were computed rather than served from
// the cache.
func (c *ColorCache) Misses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.misses
}

func (c *ColorCache) lookup(key colorKey, seats []model.Seat) string {
	h := occupancyHash(seats)
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.hash == h {
		return e.color
	}
	color := AvailabilityColor(seats)
	c.entries[key] = colorEntry{hash: h, color: color}
	c.misses++
	return color
}

// occupancyHash digests seat IDs and statuses in list order.
func occupancyHash(seats []model.Seat) uint64 {
	d := xxhash.New()
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(seats)))
	_, _ = d.Write(n[:])
	for _, s := range seats {
		_, _ = d.WriteString(s.ID)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(string(s.Status))
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}
