// Package handler exposes the HTTP handlers of the seat map server.  This
// file holds the public venue browse endpoints: listing venues, returning
// a venue layout and rendering a stateless frame.  They require no
// authentication and are safe to cache.
package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seatmap/internal/model"
	"github.com/iliyamo/venue-seatmap/internal/repository"
	"github.com/iliyamo/venue-seatmap/internal/seatmap"
	"github.com/iliyamo/venue-seatmap/internal/session"
)

// VenueStore is the venue source the handlers read and update.  Both the
// MySQL repository and the YAML file store implement it.
type VenueStore interface {
	List(ctx context.Context) ([]repository.VenueSummary, error)
	Get(ctx context.Context, id string) (*model.Venue, error)
	UpdateSeatStatus(ctx context.Context, venueID, seatID string, status model.SeatStatus) error
}

// VenueHandler serves venue reads, stateless renders and the owner's seat
// status updates.
type VenueHandler struct {
	Venues   VenueStore
	Sessions *session.Manager                                // live sessions to refresh after a status change; may be nil
	Purge    func(ctx context.Context, venueID string) error // response cache purge; may be nil

	DefaultWidth  int
	DefaultHeight int
	MaxWidth      int // frame bound; zero means seatmap.MaxFrameSide
	MaxHeight     int

	mu     sync.Mutex
	colors map[string]*seatmap.ColorCache // one memo per venue
}

// ListVenues returns {"items": [...]} with one summary per venue.
func (h *VenueHandler) ListVenues(c echo.Context) error {
	items, err := h.Venues.List(c.Request().Context())
	if err != nil {
		return NewInternalError("list venues", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetVenue returns the full layout of one venue.
func (h *VenueHandler) GetVenue(c echo.Context) error {
	v, err := h.venue(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

// RenderVenue renders a frame for an explicit viewport passed in the query:
// scale, tx, ty, width, height, selected (comma-separated seat IDs), tier
// and format.  Missing width/height use the configured defaults, missing
// tx/ty centre the venue origin like a freshly resized viewport, and the
// scale is clamped to the zoom range.
func (h *VenueHandler) RenderVenue(c echo.Context) error {
	v, err := h.venue(c)
	if err != nil {
		return err
	}
	width, err := queryFloat(c, "width", float64(h.DefaultWidth))
	if err != nil {
		return err
	}
	height, err := queryFloat(c, "height", float64(h.DefaultHeight))
	if err != nil {
		return err
	}
	if err := checkFrame(width, height, h.MaxWidth, h.MaxHeight); err != nil {
		return err
	}
	scale, err := queryFloat(c, "scale", 1)
	if err != nil {
		return err
	}
	if scale <= 0 {
		scale = 1
	}
	tx, err := queryFloat(c, "tx", width/2)
	if err != nil {
		return err
	}
	ty, err := queryFloat(c, "ty", height/2)
	if err != nil {
		return err
	}
	tier, err := queryTier(c)
	if err != nil {
		return err
	}

	vp := seatmap.NewViewport()
	vp.Resize(width, height)
	vp.Restore(seatmap.Transform{Scale: scale, X: tx, Y: ty})

	scene := seatmap.Render(seatmap.Input{
		Venue:     v,
		Transform: vp.Transform(),
		Tier:      tier,
		Width:     width,
		Height:    height,
		Selection: seatmap.NewSeatSet(splitList(c.QueryParam("selected"))...),
		Colors:    h.colorCache(v.ID),
	})
	return writeScene(c, scene)
}

func (h *VenueHandler) venue(c echo.Context) (*model.Venue, error) {
	id := c.Param("id")
	v, err := h.Venues.Get(c.Request().Context(), id)
	if errors.Is(err, repository.ErrVenueNotFound) {
		return nil, NewNotFoundError("venue", id)
	}
	if err != nil {
		return nil, NewInternalError("load venue", err)
	}
	return v, nil
}

func (h *VenueHandler) colorCache(venueID string) *seatmap.ColorCache {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.colors == nil {
		h.colors = map[string]*seatmap.ColorCache{}
	}
	cc, ok := h.colors[venueID]
	if !ok {
		cc = seatmap.NewColorCache()
		h.colors[venueID] = cc
	}
	return cc
}

func queryFloat(c echo.Context, name string, def float64) (float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, NewValidationError(name, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, NewValidationError(name, errors.New("must be a finite number"))
	}
	return f, nil
}

// frameLimit resolves a configured bound against the rasteriser's own.
func frameLimit(v int) float64 {
	if v <= 0 || v > seatmap.MaxFrameSide {
		return seatmap.MaxFrameSide
	}
	return float64(v)
}

// checkFrame rejects negative sizes and sizes past the frame bound.
func checkFrame(width, height float64, maxW, maxH int) error {
	if width < 0 || height < 0 {
		return NewValidationError("width/height", errors.New("must not be negative"))
	}
	if mw, mh := frameLimit(maxW), frameLimit(maxH); width > mw || height > mh {
		return NewValidationError("width/height", fmt.Errorf("must not exceed %gx%g", mw, mh))
	}
	return nil
}

func queryTier(c echo.Context) (seatmap.Tier, error) {
	switch t := seatmap.Tier(strings.ToLower(c.QueryParam("tier"))); t {
	case "", seatmap.TierSection, seatmap.TierRow, seatmap.TierSeat:
		return t, nil
	}
	return "", NewValidationError("tier", errors.New("want section, row or seat"))
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
