package auth

import (
	"net/http"

	"github.com/jrsteele09/go-andbang-auth/sessions"
)

// Secure guards next: the request proceeds only once the cookie and session
// agree on a token and the user's profile is known. Everything else ends in
// a redirect.
func (m *Middleware) Secure() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := m.loadSession(r)
			ok, dirty := m.reconcile(w, r, s)
			if !ok {
				return
			}
			m.serveWithProfile(w, r, s, dirty, next)
		})
	}
}

// SecureFunc is Secure for a single handler function.
func (m *Middleware) SecureFunc(next http.HandlerFunc) http.HandlerFunc {
	return m.Secure()(next).ServeHTTP
}

// EnsureUserProfile attaches the user profile to a request whose session
// already holds a trusted token. Without one it sends the visitor to log in.
func (m *Middleware) EnsureUserProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.loadSession(r)
		if s.Token == nil || s.Token.IsExpired(m.nowFunc()) {
			m.requireLogin(w, r, s)
			return
		}
		m.serveWithProfile(w, r, s, false, next)
	})
}

// serveWithProfile uses the cached profile when it belongs to the current
// token and fetches it otherwise.
func (m *Middleware) serveWithProfile(w http.ResponseWriter, r *http.Request, s *sessions.Session, dirty bool, next http.Handler) {
	user, ok := s.CachedUser()
	if !ok {
		profile, err := m.provider.FetchUserProfile(r.Context(), s.Token.AccessToken)
		m.metrics.observeCall("profile", err)
		if err != nil {
			m.logger.Info().Err(err).Str("path", r.URL.Path).Msg("andbang profile fetch failed")
			if dirty {
				m.saveSession(w, r, s)
			}
			redirect(w, r, RouteFailed)
			return
		}
		s.SetUser(profile)
		user, dirty = s.User, true
	}

	if dirty && !m.saveSession(w, r, s) {
		redirect(w, r, RouteFailed)
		return
	}

	ctx := withSession(r.Context(), s)
	next.ServeHTTP(w, r.WithContext(withIdentity(ctx, user, s.Token)))
}
