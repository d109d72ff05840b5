package sessions

import (
	"time"

	"github.com/jrsteele09/go-andbang-auth/provider"
	"github.com/jrsteele09/go-andbang-auth/token"
)

// Session is the server-side record kept per visitor. The token held here is
// authoritative; the accessToken cookie is only a mirror of it.
type Session struct {
	ID string `json:"id"`

	// Token is set once a code exchange, validation or refresh succeeds.
	Token *token.Token `json:"token,omitempty"`

	// User caches the /me profile fetched with UserToken. It is only valid
	// while UserToken equals Token.AccessToken.
	User      provider.UserProfile `json:"user,omitempty"`
	UserToken string               `json:"userToken,omitempty"`

	// OAuthState is the CSRF token of the pending login, if any.
	OAuthState string `json:"oauthState,omitempty"`

	// NextURL is where to land after a successful login.
	NextURL string `json:"nextUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	isNew bool
}

// IsNew reports whether the session has not been stored yet.
func (s *Session) IsNew() bool {
	return s.isNew
}

// SetToken replaces the session token. A token with a different access
// token invalidates the cached profile.
func (s *Session) SetToken(t *token.Token) {
	if t == nil || s.Token == nil || s.Token.AccessToken != t.AccessToken {
		s.User = nil
		s.UserToken = ""
	}
	s.Token = t.Clone()
}

// ClearToken forgets the token and everything derived from it.
func (s *Session) ClearToken() {
	s.Token = nil
	s.User = nil
	s.UserToken = ""
}

// SetUser caches profile as belonging to the current token.
func (s *Session) SetUser(profile provider.UserProfile) {
	if s.Token == nil {
		return
	}
	s.User = append(provider.UserProfile(nil), profile...)
	s.UserToken = s.Token.AccessToken
}

// CachedUser returns the profile if it was fetched with the current token.
func (s *Session) CachedUser() (provider.UserProfile, bool) {
	if s.Token == nil || len(s.User) == 0 || s.UserToken != s.Token.AccessToken {
		return nil, false
	}
	return s.User, true
}

// TakeNextURL returns and clears the post-login destination.
func (s *Session) TakeNextURL() string {
	next := s.NextURL
	s.NextURL = ""
	return next
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Token = s.Token.Clone()
	if s.User != nil {
		c.User = append(provider.UserProfile(nil), s.User...)
	}
	return &c
}
