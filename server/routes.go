package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	s.router.Use(s.StandardMiddleware()...)

	s.RegisterRouteFunc(http.MethodGet, RouteIndex, s.IndexHandler())
	s.RegisterRouteFunc(http.MethodGet, RouteLogin, s.LoginPageHandler())

	s.RegisterRouteFunc(http.MethodGet, RouteAuth, s.auth.BeginHandler())
	s.RegisterRouteFunc(http.MethodGet, RouteAuthCallback, s.auth.CallbackHandler())
	s.RegisterRouteFunc(http.MethodGet, RouteAuthFailed, s.auth.FailedHandler())
	s.RegisterRouteFunc(http.MethodGet, RouteLogout, s.auth.LogoutHandler())

	secure := s.auth.Secure()
	s.RegisterRouteHandler(http.MethodGet, RouteSecured, secure(s.SecuredPageHandler()))
	s.RegisterRouteHandler(http.MethodGet, RouteOtherSecured, secure(s.UserJSONHandler()))

	if s.gatherer != nil {
		s.RegisterRouteHandler(http.MethodGet, RouteMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}
