package provider_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-andbang-auth/provider"
	"github.com/jrsteele09/go-andbang-auth/provider/providerfake"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "c1"
	testClientSecret = "s1"
)

var fixedNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func setupClient(t *testing.T) (*providerfake.FakeProvider, *provider.Client) {
	t.Helper()

	fake := providerfake.New(t, testClientID, testClientSecret)
	client := provider.New(provider.Config{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		AccountsURL:  fake.URL(),
		APIURL:       fake.URL(),
	}, provider.WithClock(func() time.Time { return fixedNow }))
	return fake, client
}

func TestAuthorizationURL(t *testing.T) {
	client := provider.New(provider.Config{
		ClientID:    testClientID,
		AccountsURL: "https://accounts.andbang.com/",
	})

	raw := client.AuthorizationURL("abc123")
	require.Equal(t, raw, client.AuthorizationURL("abc123"))

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "accounts.andbang.com", u.Host)
	require.Equal(t, "/oauth/authorize", u.Path)
	require.Equal(t, url.Values{
		"response_type": {"code"},
		"client_id":     {testClientID},
		"state":         {"abc123"},
	}, u.Query())
}

func TestAuthorizationURLWithRedirectAndScopes(t *testing.T) {
	client := provider.New(provider.Config{
		ClientID:    testClientID,
		AccountsURL: "https://accounts.andbang.com",
		RedirectURL: "https://app.example.com/auth/andbang/callback",
		Scopes:      []string{"read", "write"},
	})

	u, err := url.Parse(client.AuthorizationURL("xyz"))
	require.NoError(t, err)
	require.Equal(t, "https://app.example.com/auth/andbang/callback", u.Query().Get("redirect_uri"))
	require.Equal(t, "read write", u.Query().Get("scope"))
}

func TestExchange(t *testing.T) {
	fake, client := setupClient(t)
	fake.AddCode("code1", providerfake.Grant{AccessToken: "tok1", RefreshToken: "ref1", ExpiresIn: 3600})

	tok, err := client.Exchange(context.Background(), "code1")
	require.NoError(t, err)
	require.Equal(t, "tok1", tok.AccessToken)
	require.Equal(t, "ref1", tok.RefreshToken)
	require.Equal(t, 3600, tok.ExpiresIn)
	require.Equal(t, fixedNow, tok.GrantedAt)

	form := fake.LastForm(providerfake.EndpointToken)
	require.Equal(t, "authorization_code", form.Get("grant_type"))
	require.Equal(t, "code1", form.Get("code"))
	require.Equal(t, testClientID, form.Get("client_id"))
	require.Equal(t, testClientSecret, form.Get("client_secret"))
}

func TestExchangeFailures(t *testing.T) {
	t.Run("unknown code", func(t *testing.T) {
		_, client := setupClient(t)
		_, err := client.Exchange(context.Background(), "nope")
		require.ErrorIs(t, err, provider.ErrExchangeFailed)
	})

	t.Run("server error", func(t *testing.T) {
		fake, client := setupClient(t)
		fake.AddCode("code1", providerfake.Grant{AccessToken: "tok1", ExpiresIn: 3600})
		fake.FailWith(providerfake.EndpointToken, http.StatusInternalServerError)
		_, err := client.Exchange(context.Background(), "code1")
		require.ErrorIs(t, err, provider.ErrExchangeFailed)
	})

	t.Run("missing lifetime", func(t *testing.T) {
		fake, client := setupClient(t)
		fake.AddCode("code1", providerfake.Grant{AccessToken: "tok1"})
		_, err := client.Exchange(context.Background(), "code1")
		require.ErrorIs(t, err, provider.ErrExchangeFailed)
	})

	t.Run("empty code", func(t *testing.T) {
		fake, client := setupClient(t)
		_, err := client.Exchange(context.Background(), "")
		require.ErrorIs(t, err, provider.ErrExchangeFailed)
		require.Zero(t, fake.TotalCalls())
	})

	t.Run("cancelled context", func(t *testing.T) {
		fake, client := setupClient(t)
		fake.AddCode("code1", providerfake.Grant{AccessToken: "tok1", ExpiresIn: 3600})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.Exchange(ctx, "code1")
		require.ErrorIs(t, err, provider.ErrExchangeFailed)
	})
}

func TestRefresh(t *testing.T) {
	fake, client := setupClient(t)
	fake.AddRefreshToken("ref1", providerfake.Grant{AccessToken: "tok2", ExpiresIn: 600})

	tok, err := client.Refresh(context.Background(), "ref1")
	require.NoError(t, err)
	require.Equal(t, "tok2", tok.AccessToken)
	require.Equal(t, "ref1", tok.RefreshToken)
	require.Equal(t, 600, tok.ExpiresIn)
	require.Equal(t, "refresh_token", fake.LastForm(providerfake.EndpointToken).Get("grant_type"))

	_, err = client.Refresh(context.Background(), "unknown")
	require.ErrorIs(t, err, provider.ErrRefreshFailed)
}

func TestValidate(t *testing.T) {
	fake, client := setupClient(t)
	fake.AddValidToken("tokA", 1800)

	tok, err := client.Validate(context.Background(), "tokA")
	require.NoError(t, err)
	require.Equal(t, "tokA", tok.AccessToken)
	require.Equal(t, 1800, tok.ExpiresIn)
	require.Equal(t, fixedNow, tok.GrantedAt)

	form := fake.LastForm(providerfake.EndpointValidate)
	require.Equal(t, "tokA", form.Get("access_token"))
	require.Equal(t, testClientID, form.Get("client_id"))
	require.Equal(t, testClientSecret, form.Get("client_secret"))
}

func TestValidateMismatchIsFailureDespite200(t *testing.T) {
	fake, client := setupClient(t)
	fake.EchoInstead("tokA", "tokB")

	_, err := client.Validate(context.Background(), "tokA")
	require.ErrorIs(t, err, provider.ErrTokenMismatch)
}

func TestValidateRejected(t *testing.T) {
	_, client := setupClient(t)
	_, err := client.Validate(context.Background(), "unknown")
	require.ErrorIs(t, err, provider.ErrValidationFailed)
}

func TestValidateNetworkFailure(t *testing.T) {
	fake, client := setupClient(t)
	fake.Close()
	_, err := client.Validate(context.Background(), "tokA")
	require.ErrorIs(t, err, provider.ErrValidationFailed)
}

func TestValidateStringLifetime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tokA","expires_in":"900"}`))
	}))
	t.Cleanup(srv.Close)

	client := provider.New(provider.Config{ClientID: testClientID, AccountsURL: srv.URL, APIURL: srv.URL})
	tok, err := client.Validate(context.Background(), "tokA")
	require.NoError(t, err)
	require.Equal(t, 900, tok.ExpiresIn)
}

func TestValidateTimeoutIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := provider.New(
		provider.Config{ClientID: testClientID, AccountsURL: srv.URL, APIURL: srv.URL},
		provider.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
	)
	_, err := client.Validate(context.Background(), "tokA")
	require.ErrorIs(t, err, provider.ErrValidationFailed)
}

func TestFetchUserProfile(t *testing.T) {
	fake, client := setupClient(t)
	fake.AddProfile("tok1", `{"id":"u1","firstName":"Ada"}`)

	profile, err := client.FetchUserProfile(context.Background(), "tok1")
	require.NoError(t, err)
	require.Equal(t, []string{"tok1"}, fake.BearerTokens())

	var user struct {
		ID        string `json:"id"`
		FirstName string `json:"firstName"`
	}
	require.NoError(t, profile.Decode(&user))
	require.Equal(t, "u1", user.ID)
	require.Equal(t, "Ada", user.FirstName)
}

func TestFetchUserProfileFailure(t *testing.T) {
	_, client := setupClient(t)
	_, err := client.FetchUserProfile(context.Background(), "unknown")
	require.ErrorIs(t, err, provider.ErrProfileFetchFailed)
	require.False(t, errors.Is(err, provider.ErrValidationFailed))
}
