package auth

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-andbang-auth/sessions"
	"github.com/jrsteele09/go-andbang-auth/token"
)

// Decision is the outcome of comparing the accessToken cookie with the
// session token.
type Decision int

const (
	// Unauthenticated: no cookie and no usable session token.
	Unauthenticated Decision = iota
	// TrustSession: session token only; the cookie is re-mirrored.
	TrustSession
	// ValidateCookie: cookie only; it must be validated with the provider.
	ValidateCookie
	// SessionWins: both present but different; the cookie is overwritten.
	SessionWins
	// Trusted: both present and equal.
	Trusted
)

func (d Decision) String() string {
	switch d {
	case Unauthenticated:
		return "unauthenticated"
	case TrustSession:
		return "trust_session"
	case ValidateCookie:
		return "validate_cookie"
	case SessionWins:
		return "session_wins"
	case Trusted:
		return "trusted"
	}
	return "unknown"
}

// Decide applies the reconciliation table. An expired session token counts
// as absent.
func Decide(cookieToken string, sessionToken *token.Token, now time.Time) Decision {
	hasCookie := cookieToken != ""
	hasSession := sessionToken != nil && sessionToken.AccessToken != "" && !sessionToken.IsExpired(now)

	switch {
	case !hasCookie && !hasSession:
		return Unauthenticated
	case !hasCookie:
		return TrustSession
	case !hasSession:
		return ValidateCookie
	case !sessionToken.Matches(cookieToken):
		return SessionWins
	default:
		return Trusted
	}
}

// reconcile brings the cookie and session into agreement. It returns false
// when it has already answered the request with a redirect. dirty reports
// whether the session changed and still needs saving.
func (m *Middleware) reconcile(w http.ResponseWriter, r *http.Request, s *sessions.Session) (ok bool, dirty bool) {
	now := m.nowFunc()

	if s.Token != nil && s.Token.IsExpired(now) {
		dirty = true
		m.refreshExpired(r, s)
	}

	cookie := tokenFromCookie(r)
	decision := Decide(cookie, s.Token, now)
	m.metrics.decisions.WithLabelValues(decision.String()).Inc()
	m.logger.Debug().Str("decision", decision.String()).Str("path", r.URL.Path).Msg("reconciled credentials")

	switch decision {
	case Unauthenticated:
		m.requireLogin(w, r, s)
		return false, false

	case TrustSession, SessionWins:
		setTokenCookie(w, r, s.Token.AccessToken, m.config.CookieMaxAge)
		return true, dirty

	case ValidateCookie:
		tok, err := m.provider.Validate(r.Context(), cookie)
		m.metrics.observeCall("validate", err)
		if err != nil {
			m.logger.Info().Err(err).Str("path", r.URL.Path).Msg("access token cookie rejected")
			clearTokenCookie(w, r)
			m.requireLogin(w, r, s)
			return false, false
		}
		if tok.ExpiresIn <= 0 {
			tok.ExpiresIn = int(m.config.CookieMaxAge.Seconds())
		}
		s.SetToken(tok)
		setTokenCookie(w, r, tok.AccessToken, tokenLifetime(tok, m.config.CookieMaxAge))
		return true, true
	}

	return true, dirty
}

// refreshExpired swaps an expired session token for a fresh one when a
// refresh token is available, otherwise drops it.
func (m *Middleware) refreshExpired(r *http.Request, s *sessions.Session) {
	if !s.Token.HasRefreshToken() {
		s.ClearToken()
		return
	}
	tok, err := m.provider.Refresh(r.Context(), s.Token.RefreshToken)
	m.metrics.observeCall("refresh", err)
	if err != nil {
		m.logger.Info().Err(err).Msg("session token refresh failed")
		s.ClearToken()
		return
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = s.Token.RefreshToken
	}
	s.SetToken(tok)
}

// requireLogin remembers where the visitor was going and sends them to /auth.
func (m *Middleware) requireLogin(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		s.NextURL = r.URL.RequestURI()
	}
	m.logger.Debug().Err(ErrUnauthenticated).Str("path", r.URL.Path).Msg("login required")
	m.saveSession(w, r, s)
	redirect(w, r, RouteAuth)
}
