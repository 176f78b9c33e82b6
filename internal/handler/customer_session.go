package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seatmap/internal/cart"
	"github.com/iliyamo/venue-seatmap/internal/middleware"
	"github.com/iliyamo/venue-seatmap/internal/repository"
	"github.com/iliyamo/venue-seatmap/internal/seatmap"
	"github.com/iliyamo/venue-seatmap/internal/session"
)

// SessionHandler drives interactive seat map sessions.  Each session is an
// independent seat map with its own viewport; the hosting page forwards
// input events and pulls frames.
type SessionHandler struct {
	Venues   VenueStore
	Sessions *session.Manager
	Carts    *cart.Store // nil keeps selections inside the session
	OnSelect []func(*session.Session, seatmap.SelectionEvent)
	Logger   seatmap.Logger

	DefaultWidth  int
	DefaultHeight int
	MaxWidth      int // frame bound; zero means seatmap.MaxFrameSide
	MaxHeight     int
}

type createSessionRequest struct {
	VenueID string  `json:"venue_id"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

type sessionResponse struct {
	ID        string            `json:"id"`
	VenueID   string            `json:"venue_id"`
	Transform seatmap.Transform `json:"transform"`
	Tier      seatmap.Tier      `json:"tier"`
}

// CreateSession opens a session on a venue.  The cart owner is the JWT
// subject when the request carries a valid bearer token, otherwise the
// session itself.
func (h *SessionHandler) CreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid body", err)
	}
	if req.VenueID == "" {
		return NewValidationError("venue_id", nil)
	}
	if err := checkFrame(req.Width, req.Height, h.MaxWidth, h.MaxHeight); err != nil {
		return err
	}
	if req.Width == 0 {
		req.Width = float64(h.DefaultWidth)
	}
	if req.Height == 0 {
		req.Height = float64(h.DefaultHeight)
	}

	ctx := c.Request().Context()
	venue, err := h.Venues.Get(ctx, req.VenueID)
	if errors.Is(err, repository.ErrVenueNotFound) {
		return NewNotFoundError("venue", req.VenueID)
	}
	if err != nil {
		return NewInternalError("load venue", err)
	}

	id := session.NewID()
	owner := middleware.UserID(c)
	if owner == "" {
		owner = id
	}
	opts := session.Options{
		Venue:     venue,
		Owner:     owner,
		Width:     req.Width,
		Height:    req.Height,
		MaxWidth:  frameLimit(h.MaxWidth),
		MaxHeight: frameLimit(h.MaxHeight),
		Logger:    h.Logger,
		OnSelect:  h.OnSelect,
	}
	if h.Carts != nil {
		opts.Cart = h.Carts.Cart(venue.ID, owner)
	}
	s, err := h.Sessions.CreateWithID(id, opts)
	if errors.Is(err, session.ErrTooManySessions) {
		return NewServiceUnavailableError("too many open sessions, retry later")
	}
	if errors.Is(err, session.ErrFrameTooLarge) {
		return NewValidationError("width/height", err)
	}
	if err != nil {
		return NewInternalError("create session", err)
	}
	st := s.State()
	return c.JSON(http.StatusCreated, sessionResponse{ID: s.ID, VenueID: s.VenueID, Transform: st.Transform, Tier: st.Tier})
}

// ApplyEvents applies a JSON array of input events in order and returns
// the resulting viewport plus the selections and section clicks it caused.
func (h *SessionHandler) ApplyEvents(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var events []session.Event
	if err := json.NewDecoder(c.Request().Body).Decode(&events); err != nil {
		return NewBadRequestError("body must be a JSON array of events", err)
	}
	res, err := s.Apply(c.Request().Context(), events)
	if errors.Is(err, session.ErrInvalidEvent) {
		return NewValidationError("type", err)
	}
	if errors.Is(err, session.ErrFrameTooLarge) {
		return NewValidationError("width/height", err)
	}
	if err != nil {
		return NewInternalError("apply events", err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetFrame renders the session's current view.
func (h *SessionHandler) GetFrame(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	scene, err := s.Frame(c.Request().Context())
	if err != nil {
		return NewInternalError("render frame", err)
	}
	return writeScene(c, scene)
}

// GetSelection returns the selected seats as domain seats.
func (h *SessionHandler) GetSelection(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	seats, err := s.Selection(c.Request().Context())
	if err != nil {
		return NewInternalError("read selection", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": seats})
}

// DeleteSession closes a session.  An anonymous session's cart goes with
// it; a signed-in owner keeps theirs.
func (h *SessionHandler) DeleteSession(c echo.Context) error {
	id := c.Param("id")
	s, err := h.Sessions.Delete(id)
	if errors.Is(err, session.ErrSessionNotFound) {
		return NewNotFoundError("session", id)
	}
	if err != nil {
		return NewInternalError("delete session", err)
	}
	if h.Carts != nil && s.Owner == s.ID {
		if err := h.Carts.Cart(s.VenueID, s.Owner).Clear(c.Request().Context()); err != nil {
			c.Logger().Warnf("clear cart of session %s: %v", s.ID, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SessionHandler) session(c echo.Context) (*session.Session, error) {
	id := c.Param("id")
	s, err := h.Sessions.Get(id)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, NewNotFoundError("session", id)
	}
	return s, err
}
