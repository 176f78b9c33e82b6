package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seatmap/internal/model"
	"github.com/iliyamo/venue-seatmap/internal/repository"
)

// updateSeatStatusRequest is the body of PUT /v1/venues/:id/seats/:seatId/status.
type updateSeatStatusRequest struct {
	Status string `json:"status"`
}

// UpdateSeatStatus lets a venue owner mark a seat available, sold or
// pending.  On success the cached responses of the venue are purged and
// every live session showing it picks up the new layout, so their colours
// and seat interactivity follow on the next frame.
func (h *VenueHandler) UpdateSeatStatus(c echo.Context) error {
	venueID, seatID := c.Param("id"), c.Param("seatId")
	var req updateSeatStatusRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid body", err)
	}
	status, err := model.ParseSeatStatus(req.Status)
	if err != nil {
		return NewValidationError("status", err)
	}

	ctx := c.Request().Context()
	switch err := h.Venues.UpdateSeatStatus(ctx, venueID, seatID, status); {
	case errors.Is(err, repository.ErrVenueNotFound):
		return NewNotFoundError("venue", venueID)
	case errors.Is(err, repository.ErrSeatNotFound):
		return NewNotFoundError("seat", seatID)
	case err != nil:
		return NewInternalError("update seat status", err)
	}

	if h.Purge != nil {
		if err := h.Purge(ctx, venueID); err != nil {
			c.Logger().Warnf("purge cache for venue %s: %v", venueID, err)
		}
	}
	if h.Sessions != nil {
		if v, err := h.Venues.Get(ctx, venueID); err == nil {
			for _, s := range h.Sessions.ForVenue(venueID) {
				s.SetVenue(v)
			}
		} else {
			c.Logger().Warnf("reload venue %s: %v", venueID, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"venue_id": venueID, "seat_id": seatID, "status": status})
}
