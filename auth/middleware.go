// Package auth guards HTTP routes behind an andbang login. It owns the
// /auth, callback, failure and logout routes and reconciles the accessToken
// cookie with the token held in the server-side session on every guarded
// request.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-andbang-auth/provider"
	"github.com/jrsteele09/go-andbang-auth/sessions"
	"github.com/jrsteele09/go-andbang-auth/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	RouteAuth     = "/auth"
	RouteCallback = "/auth/andbang/callback"
	RouteFailed   = "/auth/andbang/failed"
	RouteLogout   = "/logout"

	stateBytes = 32
)

// Provider is the set of outbound calls the middleware makes.
// *provider.Client implements it.
type Provider interface {
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (*token.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*token.Token, error)
	Validate(ctx context.Context, accessToken string) (*token.Token, error)
	FetchUserProfile(ctx context.Context, accessToken string) (provider.UserProfile, error)
}

// SessionStore loads and persists the per-visitor session.
// *sessions.Manager implements it.
type SessionStore interface {
	Load(r *http.Request) (*sessions.Session, error)
	Save(w http.ResponseWriter, r *http.Request, s *sessions.Session) error
	Destroy(w http.ResponseWriter, r *http.Request, s *sessions.Session) error
}

// Middleware is the andbang login integration for one application.
type Middleware struct {
	config     Config
	provider   Provider
	sessions   SessionStore
	logger     zerolog.Logger
	metrics    *metrics
	nowFunc    func() time.Time
	stateFunc  func() (string, error)
	httpClient *http.Client
	registerer prometheus.Registerer
}

type Option func(*Middleware)

// WithProvider replaces the andbang client built from Config.
func WithProvider(p Provider) Option {
	return func(m *Middleware) {
		m.provider = p
	}
}

// WithHTTPClient sets the client used by the default provider.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Middleware) {
		m.httpClient = c
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Middleware) {
		m.logger = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Middleware) {
		m.nowFunc = now
	}
}

// WithStateGenerator replaces the random CSRF state source.
func WithStateGenerator(f func() (string, error)) Option {
	return func(m *Middleware) {
		m.stateFunc = f
	}
}

// WithRegisterer registers the middleware's metrics. Without it the
// collectors are created but not registered anywhere.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Middleware) {
		m.registerer = reg
	}
}

// New builds the middleware. A config missing required fields is logged
// and the middleware is still returned; its guarded routes will fail at the
// provider until the configuration is fixed.
func New(cfg Config, store SessionStore, opts ...Option) *Middleware {
	m := &Middleware{
		sessions:  store,
		logger:    log.Logger,
		nowFunc:   time.Now,
		stateFunc: newState,
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := cfg.Validate(); err != nil {
		m.logger.Warn().Err(err).Strs("missing", cfg.Missing()).Msg("andbang auth is not fully configured")
	}
	m.config = cfg.withDefaults()
	m.metrics = newMetrics(m.registerer)

	if m.provider == nil {
		providerOpts := []provider.Option{
			provider.WithClock(m.nowFunc),
			provider.WithLogger(m.logger),
		}
		if m.httpClient != nil {
			providerOpts = append(providerOpts, provider.WithHTTPClient(m.httpClient))
		}
		m.provider = provider.New(m.config.providerConfig(), providerOpts...)
	}
	return m
}

// Config returns the effective configuration, defaults applied.
func (m *Middleware) Config() Config {
	return m.config
}

// Mount installs the auth routes on a chi router.
func (m *Middleware) Mount(r chi.Router) {
	r.Get(RouteAuth, m.BeginHandler())
	r.Get(RouteCallback, m.CallbackHandler())
	r.Get(RouteFailed, m.FailedHandler())
	r.Get(RouteLogout, m.LogoutHandler())
}

// Routes returns a router serving only the auth routes.
func (m *Middleware) Routes() chi.Router {
	r := chi.NewRouter()
	m.Mount(r)
	return r
}

// RegisterRoutes installs the auth routes on a standard library mux.
func (m *Middleware) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+RouteAuth, m.BeginHandler())
	mux.HandleFunc("GET "+RouteCallback, m.CallbackHandler())
	mux.HandleFunc("GET "+RouteFailed, m.FailedHandler())
	mux.HandleFunc("GET "+RouteLogout, m.LogoutHandler())
}

// loadSession returns the session already attached to the request, or
// loads it from the store. An unreadable session cookie yields a new
// session.
func (m *Middleware) loadSession(r *http.Request) *sessions.Session {
	if s, ok := sessionFromContext(r.Context()); ok {
		return s
	}
	s, err := m.sessions.Load(r)
	if err != nil {
		m.logger.Debug().Err(err).Msg("starting new session")
	}
	return s
}

func (m *Middleware) saveSession(w http.ResponseWriter, r *http.Request, s *sessions.Session) bool {
	if err := m.sessions.Save(w, r, s); err != nil {
		m.logger.Err(err).Str("path", r.URL.Path).Msg("failed to save session")
		return false
	}
	return true
}

func newState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
