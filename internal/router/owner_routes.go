package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seatmap/internal/handler"    // venue handlers
	"github.com/iliyamo/venue-seatmap/internal/middleware" // JWT + role middlewares
)

// RegisterOwner registers OWNER-scoped endpoints.  They require a valid JWT
// and the OWNER role.  Middlewares are attached per route so they never
// run for the public venue reads that share the /v1/venues prefix.
func RegisterOwner(e *echo.Echo, v *handler.VenueHandler, jwtSecret string) {
	owner := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER"),
	}

	// ---- Seats ----
	e.PUT("/v1/venues/:id/seats/:seatId/status", v.UpdateSeatStatus, owner...)
	e.PATCH("/v1/venues/:id/seats/:seatId/status", v.UpdateSeatStatus, owner...) // alias for clients that use PATCH
}
