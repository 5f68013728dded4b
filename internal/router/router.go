package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/spin-wheel-redemption/internal/handler" // handlers implementing the operations
)

// RegisterRoutes wires the service's endpoints onto the provided Echo
// instance.  The whole API is a single dispatch endpoint: every operation
// goes through /api/backend and is selected by the `op` query parameter,
// so both GET (wins) and POST (everything else) are mapped to the same
// handler.  The optional flood-guard middleware is applied only to the
// dispatch endpoint, never to the health check.
func RegisterRoutes(e *echo.Echo, b *handler.Backend, guards ...echo.MiddlewareFunc) {
	// Health check for load balancers and monitoring; intentionally outside
	// any rate limiting.
	e.GET("/healthz", handler.Health)

	e.POST("/api/backend", b.Dispatch, guards...)
	e.GET("/api/backend", b.Dispatch, guards...)
}
