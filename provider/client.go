// Package provider talks to the andbang accounts service and API on behalf
// of the auth middleware. Every call is made once; failures are returned to
// the caller, which decides where to redirect.
package provider

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-andbang-auth/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	authorizePath   = "/oauth/authorize"
	accessTokenPath = "/oauth/access_token"
	validatePath    = "/oauth/validate"
	profilePath     = "/me"

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 20
)

// Config identifies the client application and the two provider hosts.
type Config struct {
	ClientID     string
	ClientSecret string
	AccountsURL  string
	APIURL       string
	RedirectURL  string   // optional, sent as redirect_uri when set
	Scopes       []string // optional
}

// Client performs the outbound calls of the authorization code flow.
type Client struct {
	oauth        *oauth2.Config
	clientID     string
	clientSecret string
	validateURL  string
	profileURL   string
	httpClient   *http.Client
	nowFunc      func() time.Time
	logger       zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the strict-TLS default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithClock overrides the time source used to stamp granted tokens.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) {
		if now != nil {
			cl.nowFunc = now
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewHTTPClient returns a client that verifies certificates and refuses
// anything older than TLS 1.2.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	return &http.Client{Transport: transport, Timeout: defaultTimeout}
}

func New(cfg Config, opts ...Option) *Client {
	accounts := strings.TrimRight(cfg.AccountsURL, "/")
	api := strings.TrimRight(cfg.APIURL, "/")

	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   accounts + authorizePath,
				TokenURL:  accounts + accessTokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		validateURL:  accounts + validatePath,
		profileURL:   api + profilePath,
		httpClient:   NewHTTPClient(),
		nowFunc:      time.Now,
		logger:       log.With().Str("component", "andbang-provider").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthorizationURL is where the browser is sent to log in. The result only
// depends on the configuration and state.
func (c *Client) AuthorizationURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token.
func (c *Client) Exchange(ctx context.Context, code string) (*token.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", ErrExchangeFailed)
	}
	ot, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		c.logger.Debug().Err(err).Str("endpoint", c.oauth.Endpoint.TokenURL).Msg("code exchange failed")
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	tok, err := c.fromOAuth2(ot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	c.logger.Debug().Int("expires_in", tok.ExpiresIn).Msg("code exchanged")
	return tok, nil
}

// Refresh uses a refresh token to obtain a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*token.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: missing refresh token", ErrRefreshFailed)
	}
	ot, err := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		c.logger.Debug().Err(err).Str("endpoint", c.oauth.Endpoint.TokenURL).Msg("token refresh failed")
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	tok, err := c.fromOAuth2(ot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	return tok, nil
}

// Validate asks the accounts service whether accessToken is still good for
// this client. A 200 that echoes a different token is ErrTokenMismatch.
func (c *Client) Validate(ctx context.Context, accessToken string) (*token.Token, error) {
	form := url.Values{
		"access_token":  {accessToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.validateURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var body tokenResponse
	if err := c.doJSON(req, &body); err != nil {
		c.logger.Debug().Err(err).Str("endpoint", c.validateURL).Msg("token validation failed")
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if body.AccessToken != accessToken {
		c.logger.Warn().Str("endpoint", c.validateURL).Msg("provider returned a different access token")
		return nil, ErrTokenMismatch
	}

	tok := token.New(body.AccessToken, body.RefreshToken, int(body.ExpiresIn), c.nowFunc())
	if body.TokenType != "" {
		tok.TokenType = body.TokenType
	}
	return tok, nil
}

// FetchUserProfile loads the profile of the user owning accessToken.
func (c *Client) FetchUserProfile(ctx context.Context, accessToken string) (UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	var raw json.RawMessage
	if err := c.doJSON(req, &raw); err != nil {
		c.logger.Debug().Err(err).Str("endpoint", c.profileURL).Msg("profile fetch failed")
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: empty profile", ErrProfileFetchFailed)
	}
	return UserProfile(raw), nil
}

func (c *Client) doJSON(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// fromOAuth2 converts a token endpoint response, which must carry a
// lifetime, into a token granted now. x/oauth2 turns expires_in into a wall
// clock Expiry, so the lifetime is recovered against the real clock.
func (c *Client) fromOAuth2(ot *oauth2.Token) (*token.Token, error) {
	if ot.Expiry.IsZero() {
		return nil, fmt.Errorf("response missing expires_in")
	}
	expiresIn := int(math.Round(time.Until(ot.Expiry).Seconds()))
	if expiresIn <= 0 {
		return nil, fmt.Errorf("token already expired")
	}
	tok := token.New(ot.AccessToken, ot.RefreshToken, expiresIn, c.nowFunc())
	if ot.TokenType != "" {
		tok.TokenType = ot.TokenType
	}
	return tok, nil
}
