package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/venue-seatmap/internal/handler"    // handlers implementing each endpoint
	"github.com/iliyamo/venue-seatmap/internal/middleware" // JWT identity middleware for sessions
)

// RegisterRoutes registers the unauthenticated health endpoints: /healthz for
// liveness and, when a ReadyHandler is given, /readyz for readiness.
func RegisterRoutes(e *echo.Echo, ready *handler.ReadyHandler) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready.Ready)
	}
}

// RegisterPublic registers the venue browse endpoints.  They need no
// authentication; cache wraps them with the Redis response cache (pass
// nil to serve uncached).
func RegisterPublic(e *echo.Echo, v *handler.VenueHandler, cache echo.MiddlewareFunc) {
	var mws []echo.MiddlewareFunc
	if cache != nil {
		mws = append(mws, cache)
	}
	e.GET("/v1/venues", v.ListVenues, mws...)
	e.GET("/v1/venues/:id", v.GetVenue, mws...)
	// Stateless render: the whole viewport is in the query, so the
	// response is cacheable like the layout itself.
	e.GET("/v1/venues/:id/render", v.RenderVenue, mws...)
}

// RegisterSessions registers the interactive session endpoints.  A bearer
// token is optional: when valid, its subject owns the session's cart.
func RegisterSessions(e *echo.Echo, s *handler.SessionHandler, jwtSecret string) {
	g := e.Group("/v1/sessions", middleware.OptionalJWT(jwtSecret))
	g.POST("", s.CreateSession)
	g.POST("/:id/events", s.ApplyEvents)
	g.GET("/:id/frame", s.GetFrame)
	g.GET("/:id/selection", s.GetSelection)
	g.DELETE("/:id", s.DeleteSession)
}
