package token

import (
	"time"
)

// Token is an access token issued by the andbang accounts service together
// with the metadata needed to decide whether it can still be trusted.
// The JSON tags are the shape the token takes inside a stored session.
type Token struct {
	// AccessToken is the bearer credential sent to the API.
	AccessToken string `json:"access_token"`

	// RefreshToken is only present when the provider issued one.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is normally "bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds measured from GrantedAt.
	ExpiresIn int `json:"expires_in"`

	// GrantedAt is when this process obtained or last validated the token.
	GrantedAt time.Time `json:"grant_date"`
}

// New returns a token granted at now.
func New(accessToken, refreshToken string, expiresIn int, now time.Time) *Token {
	return &Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    expiresIn,
		GrantedAt:    now,
	}
}

// ExpiresAt is the authoritative expiry, GrantedAt + ExpiresIn.
// It returns the zero time when the grant time is unknown.
func (t *Token) ExpiresAt() time.Time {
	if t == nil || t.GrantedAt.IsZero() {
		return time.Time{}
	}
	return t.GrantedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// IsExpired reports whether the token can no longer be trusted at now.
// A token without a grant time or lifetime is always expired.
func (t *Token) IsExpired(now time.Time) bool {
	if t == nil || t.GrantedAt.IsZero() || t.ExpiresIn <= 0 {
		return true
	}
	return !now.Before(t.ExpiresAt())
}

// Remaining is the lifetime left at now, never negative.
func (t *Token) Remaining(now time.Time) time.Duration {
	if t.IsExpired(now) {
		return 0
	}
	return t.ExpiresAt().Sub(now)
}

// Matches reports whether cookieValue is exactly this token's access token.
func (t *Token) Matches(cookieValue string) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return t.AccessToken == cookieValue
}

// HasRefreshToken reports whether the token can be renewed without a new login.
func (t *Token) HasRefreshToken() bool {
	return t != nil && t.RefreshToken != ""
}

// Clone returns a copy that shares nothing with t.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
