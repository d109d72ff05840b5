package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/jrsteele09/go-andbang-auth/sessions"
)

// BeginHandler starts the login: it stores a fresh CSRF state in the
// session and redirects to the provider's authorize page. Visitors who
// already hold a credential go straight to the default redirect.
func (m *Middleware) BeginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := m.loadSession(r)

		if tokenFromCookie(r) != "" || (s.Token != nil && !s.Token.IsExpired(m.nowFunc())) {
			redirect(w, r, m.config.DefaultRedirectPath)
			return
		}

		clearTokenCookie(w, r)

		state, err := m.stateFunc()
		if err != nil {
			m.logger.Err(err).Msg("failed to generate oauth state")
			redirect(w, r, RouteFailed)
			return
		}
		s.OAuthState = state
		if next := r.URL.Query().Get("next"); isLocalPath(next) {
			s.NextURL = next
		}
		if !m.saveSession(w, r, s) {
			redirect(w, r, RouteFailed)
			return
		}

		http.Redirect(w, r, m.provider.AuthorizationURL(state), http.StatusFound)
	}
}

// CallbackHandler completes the login. The state is single use: it is
// cleared from the session whatever the outcome.
func (m *Middleware) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := rawQuery(r)
		s := m.loadSession(r)

		expected := s.OAuthState
		s.OAuthState = ""

		fail := func(err error, msg string) {
			m.metrics.logins.WithLabelValues("failed").Inc()
			m.logger.Info().Err(err).Msg(msg)
			if expected != "" {
				m.saveSession(w, r, s)
			}
			redirect(w, r, RouteFailed)
		}

		if providerErr := query.Get("error"); providerErr != "" {
			fail(ErrProviderDenied, "andbang login denied: "+providerErr)
			return
		}

		state := query.Get("state")
		if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
			fail(ErrCsrfStateMismatch, "andbang callback rejected")
			return
		}

		tok, err := m.provider.Exchange(r.Context(), query.Get("code"))
		m.metrics.observeCall("exchange", err)
		if err != nil {
			fail(err, "andbang code exchange failed")
			return
		}
		profile, err := m.provider.FetchUserProfile(r.Context(), tok.AccessToken)
		m.metrics.observeCall("profile", err)
		if err != nil {
			fail(err, "andbang profile fetch failed")
			return
		}
		s.SetToken(tok)
		s.SetUser(profile)

		if m.config.OnTokenGranted != nil {
			if err := m.config.OnTokenGranted(r.Context(), profile, tok.Clone()); err != nil {
				m.logger.Err(err).Msg("token granted hook failed")
			}
		}

		next := s.TakeNextURL()
		if next == "" {
			next = m.config.DefaultRedirectPath
		}
		if !m.saveSession(w, r, s) {
			redirect(w, r, RouteFailed)
			return
		}
		setTokenCookie(w, r, tok.AccessToken, tokenLifetime(tok, m.config.CookieMaxAge))

		m.metrics.logins.WithLabelValues("ok").Inc()
		m.logger.Info().Str("next", next).Msg("andbang login complete")
		redirect(w, r, next)
	}
}

// FailedHandler forgets any token and sends the visitor to the configured
// failure page.
func (m *Middleware) FailedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := m.loadSession(r)
		if !s.IsNew() {
			s.ClearToken()
			m.saveSession(w, r, s)
		}
		clearTokenCookie(w, r)
		redirect(w, r, m.config.LoginFailedRedirectPath)
	}
}

// LogoutHandler destroys the session and clears the cookie.
func (m *Middleware) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := m.loadSession(r)
		m.logout(w, r, s)
		redirect(w, r, m.config.LoggedOutRedirectPath)
	}
}

func (m *Middleware) logout(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
	if err := m.sessions.Destroy(w, r, s); err != nil {
		m.logger.Err(err).Msg("failed to destroy session")
	}
	clearTokenCookie(w, r)
}
