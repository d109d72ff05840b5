package server

import "github.com/jrsteele09/go-andbang-auth/auth"

// Route path constants
const (
	RouteIndex = "/"
	RouteLogin = "/login"

	// Guarded demo routes
	RouteSecured      = "/secured"
	RouteOtherSecured = "/other-secured"

	RouteMetrics = "/metrics"

	// Owned by the auth middleware
	RouteAuth         = auth.RouteAuth
	RouteAuthCallback = auth.RouteCallback
	RouteAuthFailed   = auth.RouteFailed
	RouteLogout       = auth.RouteLogout
)
