package config

import "github.com/jrsteele09/go-andbang-auth/auth"

type Andbang struct {
	ClientID        string   `env:"ANDBANG_CLIENT_ID"`
	ClientSecret    string   `env:"ANDBANG_CLIENT_SECRET"`
	DefaultRedirect string   `env:"ANDBANG_DEFAULT_REDIRECT" envDefault:"/secured"`
	AccountsURL     string   `env:"ANDBANG_ACCOUNTS_URL"`
	APIURL          string   `env:"ANDBANG_API_URL"`
	Local           bool     `env:"ANDBANG_LOCAL"`
	RedirectURL     string   `env:"ANDBANG_REDIRECT_URL"`
	Scopes          []string `env:"ANDBANG_SCOPES" envSeparator:","`
}

var _ AndbangConfig = Andbang{}

// GetAuthConfig maps the environment onto the middleware configuration.
// Empty URLs are left for the middleware to default.
func (a Andbang) GetAuthConfig() auth.Config {
	return auth.Config{
		ClientID:            a.ClientID,
		ClientSecret:        a.ClientSecret,
		DefaultRedirectPath: a.DefaultRedirect,
		AccountsBaseURL:     a.AccountsURL,
		APIBaseURL:          a.APIURL,
		Local:               a.Local,
		RedirectURL:         a.RedirectURL,
		Scopes:              a.Scopes,
	}
}
