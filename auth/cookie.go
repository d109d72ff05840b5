package auth

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-andbang-auth/sessions"
	"github.com/jrsteele09/go-andbang-auth/token"
)

// TokenCookieName is the client-visible mirror of the session's access token.
const TokenCookieName = "accessToken"

func tokenFromCookie(r *http.Request) string {
	c, err := r.Cookie(TokenCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func setTokenCookie(w http.ResponseWriter, r *http.Request, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    value,
		Path:     "/",
		Secure:   sessions.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

func clearTokenCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		Secure:   sessions.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// tokenLifetime is the cookie lifetime for a token straight from the
// provider, falling back to the policy window when it carries none.
func tokenLifetime(tok *token.Token, fallback time.Duration) time.Duration {
	if tok.ExpiresIn > 0 {
		return time.Duration(tok.ExpiresIn) * time.Second
	}
	return fallback
}

// redirect helper for htmx-aware redirects
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// isLocalPath accepts "/x" but not "//host" or absolute URLs, so a
// next parameter cannot send the user off-site.
func isLocalPath(p string) bool {
	if p == "" || p[0] != '/' || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}

// rawQuery parses the query straight from the request line rather than the
// already-decoded URL, so providers that double-encode still parse.
func rawQuery(r *http.Request) url.Values {
	raw := r.URL.RawQuery
	if i := strings.IndexByte(r.RequestURI, '?'); i >= 0 {
		raw = r.RequestURI[i+1:]
	}
	values, _ := url.ParseQuery(raw)
	return values
}
