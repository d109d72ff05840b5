package auth

import (
	"context"

	"github.com/jrsteele09/go-andbang-auth/provider"
	"github.com/jrsteele09/go-andbang-auth/sessions"
	"github.com/jrsteele09/go-andbang-auth/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the andbang user profile of a guarded request
	ContextKeyUser ContextKey = "andbang_user"
	// ContextKeyToken stores the trusted token of a guarded request
	ContextKeyToken ContextKey = "andbang_token"

	contextKeySession ContextKey = "andbang_session"
)

// UserFromContext returns the profile set by Secure or EnsureUserProfile.
func UserFromContext(ctx context.Context) (provider.UserProfile, bool) {
	user, ok := ctx.Value(ContextKeyUser).(provider.UserProfile)
	return user, ok && len(user) > 0
}

// TokenFromContext returns a copy of the trusted token of the request.
func TokenFromContext(ctx context.Context) (*token.Token, bool) {
	tok, ok := ctx.Value(ContextKeyToken).(*token.Token)
	if !ok || tok == nil {
		return nil, false
	}
	return tok.Clone(), true
}

func withIdentity(ctx context.Context, user provider.UserProfile, tok *token.Token) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUser, user)
	return context.WithValue(ctx, ContextKeyToken, tok.Clone())
}

func withSession(ctx context.Context, s *sessions.Session) context.Context {
	return context.WithValue(ctx, contextKeySession, s)
}

func sessionFromContext(ctx context.Context) (*sessions.Session, bool) {
	s, ok := ctx.Value(contextKeySession).(*sessions.Session)
	return s, ok && s != nil
}
