package sessions

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCookieName = "andbang_sid"
	DefaultTTL        = 24 * time.Hour

	cookieIssuer = "andbang-auth"
)

// Manager binds a Repo to the browser through a session id cookie. The
// cookie carries an HS256 JWT so ids cannot be guessed or forged.
type Manager struct {
	repo       Repo
	secret     []byte
	cookieName string
	ttl        time.Duration
	nowFunc    func() time.Time
	logger     zerolog.Logger
}

type ManagerOption func(*Manager)

func WithCookieName(name string) ManagerOption {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithTTL sets how long an idle session survives.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.nowFunc = now
		}
	}
}

func WithManagerLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager signs session cookies with secret. An empty secret is replaced
// by a random one, so sessions do not survive a restart.
func NewManager(repo Repo, secret []byte, opts ...ManagerOption) *Manager {
	m := &Manager{
		repo:       repo,
		secret:     secret,
		cookieName: DefaultCookieName,
		ttl:        DefaultTTL,
		nowFunc:    time.Now,
		logger:     log.With().Str("component", "andbang-sessions").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.secret) == 0 {
		m.secret = make([]byte, 32)
		_, _ = rand.Read(m.secret)
		m.logger.Warn().Msg("no session secret configured, using an ephemeral key")
	}
	return m
}

// Load returns the visitor's session, or a new unsaved one when the cookie
// is missing, invalid, or points at a session that no longer exists. The
// error is informational; the returned session is always usable.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return m.newSession(), nil
	}

	sessionID, err := m.parseCookie(cookie.Value)
	if err != nil {
		return m.newSession(), err
	}

	session, err := m.repo.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return m.newSession(), nil
		}
		return m.newSession(), err
	}
	return session, nil
}

// Save persists the session and (re)issues its cookie with a fresh TTL.
// Requests that leave the session unchanged do not call it, so the expiry
// is measured from the last write.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, session *Session) error {
	now := m.nowFunc()
	session.UpdatedAt = now
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if err := m.repo.Upsert(r.Context(), session, m.ttl); err != nil {
		return err
	}
	session.isNew = false

	value, err := m.signCookie(session.ID, now)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	})
	return nil
}

// Destroy removes the session from the store and expires its cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request, session *Session) error {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	if session == nil || session.isNew {
		return nil
	}
	return m.repo.Delete(r.Context(), session.ID)
}

func (m *Manager) newSession() *Session {
	now := m.nowFunc()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		isNew:     true,
	}
}

func (m *Manager) signCookie(sessionID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Issuer:    cookieIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

func (m *Manager) parseCookie(value string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cookieIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionCookie, err)
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return "", fmt.Errorf("%w: bad session id", ErrInvalidSessionCookie)
	}
	return claims.ID, nil
}

// IsSecureRequest reports whether cookies for r should carry the Secure
// flag: always, unless the request is plaintext to localhost or a
// loopback address.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "localhost" {
		return false
	}
	ip := net.ParseIP(host)
	return ip == nil || !ip.IsLoopback()
}
