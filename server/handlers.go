package server

import (
	"html/template"
	"net/http"

	"github.com/jrsteele09/go-andbang-auth/auth"
	"github.com/rs/zerolog/log"
)

type pageData struct {
	AppName   string
	LoginURL  string
	LogoutURL string
	User      string
}

func (s *Server) pageData() pageData {
	return pageData{
		AppName:   s.config.GetAppName(),
		LoginURL:  RouteAuth,
		LogoutURL: RouteLogout,
	}
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		log.Err(err).Str("template", tmpl.Name()).Msg("failed to render page")
	}
}

// IndexHandler renders the home page
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, s.pages.index, s.pageData())
	}
}

// LoginPageHandler is where failed logins land
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, s.pages.login, s.pageData())
	}
}

// SecuredPageHandler shows the signed in user's profile
func (s *Server) SecuredPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		data := s.pageData()
		data.User = string(user)
		s.render(w, s.pages.secured, data)
	}
}

// UserJSONHandler returns the signed in user's profile as sent by andbang
func (s *Server) UserJSONHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(user)
	}
}
