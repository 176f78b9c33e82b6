package handler // declare the package name; contains HTTP handlers

import (
	"context"  // context bounds the readiness checks
	"net/http" // net/http provides status codes and response helpers
	"time"     // time sets the check timeout

	"github.com/labstack/echo/v4" // echo is the web framework used for this project

	"github.com/iliyamo/venue-seatmap/internal/session"
)

// Health is a simple liveness endpoint used by load balancers.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// ReadyHandler reports whether the dependencies needed to serve seat maps
// are reachable.  Redis is optional: a nil Ping means it is disabled.
type ReadyHandler struct {
	Venues   VenueStore
	Sessions *session.Manager
	Ping     func(ctx context.Context) error // Redis ping; may be nil
}

// Ready returns 200 with a component summary, or 503 when the venue source
// fails.
func (h *ReadyHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	out := echo.Map{"sessions": h.Sessions.Len(), "redis": "disabled"}
	venues, err := h.Venues.List(ctx)
	if err != nil {
		return NewServiceUnavailableError("venue source unavailable")
	}
	out["venues"] = len(venues)
	if h.Ping != nil {
		out["redis"] = "ok"
		if err := h.Ping(ctx); err != nil {
			out["redis"] = "down" // cart and cache degrade, seat maps still work
		}
	}
	return c.JSON(http.StatusOK, out)
}
