package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-andbang-auth/provider"
	"github.com/jrsteele09/go-andbang-auth/token"
)

const (
	DefaultAccountsURL      = "https://accounts.andbang.com"
	DefaultAPIURL           = "https://api.andbang.com"
	DefaultLocalAccountsURL = "http://localhost:3001"
	DefaultLocalAPIURL      = "http://localhost:3000"

	DefaultCookieMaxAge = 24 * time.Hour
)

// TokenGrantedFunc is called after a successful login with the freshly
// fetched profile and token, typically to store the refresh token.
type TokenGrantedFunc func(ctx context.Context, user provider.UserProfile, tok *token.Token) error

// Config is fixed for the lifetime of a Middleware.
type Config struct {
	// Required.
	ClientID            string
	ClientSecret        string
	DefaultRedirectPath string

	// AccountsBaseURL and APIBaseURL default to the andbang hosts, or to
	// localhost ports when Local is set.
	AccountsBaseURL string
	APIBaseURL      string
	Local           bool

	LoginFailedRedirectPath string // default "/"
	LoggedOutRedirectPath   string // default "/"

	// RedirectURL and Scopes are forwarded to the authorize request when set.
	RedirectURL string
	Scopes      []string

	// CookieMaxAge is the lifetime given to the accessToken cookie when it is
	// re-mirrored from the session. Default 24h.
	CookieMaxAge time.Duration

	OnTokenGranted TokenGrantedFunc
}

// Missing lists the required fields that are empty.
func (c Config) Missing() []string {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "ClientID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "ClientSecret")
	}
	if c.DefaultRedirectPath == "" {
		missing = append(missing, "DefaultRedirectPath")
	}
	return missing
}

// Validate returns ErrMissingConfiguration naming every absent field.
func (c Config) Validate() error {
	if missing := c.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.AccountsBaseURL == "" {
		c.AccountsBaseURL = DefaultAccountsURL
		if c.Local {
			c.AccountsBaseURL = DefaultLocalAccountsURL
		}
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIURL
		if c.Local {
			c.APIBaseURL = DefaultLocalAPIURL
		}
	}
	if c.DefaultRedirectPath == "" {
		c.DefaultRedirectPath = "/"
	}
	if c.LoginFailedRedirectPath == "" {
		c.LoginFailedRedirectPath = "/"
	}
	if c.LoggedOutRedirectPath == "" {
		c.LoggedOutRedirectPath = "/"
	}
	if c.CookieMaxAge <= 0 {
		c.CookieMaxAge = DefaultCookieMaxAge
	}
	c.Scopes = append([]string(nil), c.Scopes...)
	return c
}

func (c Config) providerConfig() provider.Config {
	return provider.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		AccountsURL:  c.AccountsBaseURL,
		APIURL:       c.APIBaseURL,
		RedirectURL:  c.RedirectURL,
		Scopes:       c.Scopes,
	}
}
