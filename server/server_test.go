package server_test

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/go-andbang-auth/auth"
	"github.com/jrsteele09/go-andbang-auth/internal/config"
	"github.com/jrsteele09/go-andbang-auth/provider/providerfake"
	"github.com/jrsteele09/go-andbang-auth/server"
	"github.com/jrsteele09/go-andbang-auth/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	fake   *providerfake.FakeProvider
	server *server.Server
	client *http.Client
	base   string
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	fake := providerfake.New(t, "c1", "s1")
	t.Setenv("ANDBANG_CLIENT_ID", "c1")
	t.Setenv("ANDBANG_CLIENT_SECRET", "s1")
	t.Setenv("ANDBANG_ACCOUNTS_URL", fake.URL())
	t.Setenv("ANDBANG_API_URL", fake.URL())
	t.Setenv("APP_NAME", "demo")
	c, err := config.New()
	require.NoError(t, err)

	authConfig := c.GetAuthConfig()
	authConfig.LoginFailedRedirectPath = server.RouteLogin

	registry := prometheus.NewRegistry()
	store := sessions.NewManager(sessions.NewInMemoryRepo(), []byte("0123456789abcdef0123456789abcdef"))
	mw := auth.New(authConfig, store,
		auth.WithRegisterer(registry),
		auth.WithStateGenerator(func() (string, error) { return "state-1", nil }),
	)

	s, err := server.New(c, mw, registry)
	require.NoError(t, err)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testFixture{fake: fake, server: s, client: client, base: ts.URL}
}

func (f *testFixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := f.client.Get(f.base + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestIndexLinksToLogin(t *testing.T) {
	f := setupTestFixture(t)

	resp, body := f.get(t, server.RouteIndex)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `href="/auth"`)
	require.Contains(t, body, "demo")
	require.Equal(t, "SAMEORIGIN", resp.Header.Get("X-Frame-Options"))
}

func TestSecuredRoutesRequireLogin(t *testing.T) {
	f := setupTestFixture(t)

	for _, path := range []string{server.RouteSecured, server.RouteOtherSecured} {
		resp, _ := f.get(t, path)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, server.RouteAuth, resp.Header.Get("Location"))
	}
	require.Zero(t, f.fake.TotalCalls())
}

func TestLoginThenSecuredRoutes(t *testing.T) {
	f := setupTestFixture(t)
	f.fake.AddCode("abc", providerfake.Grant{AccessToken: "tok1", ExpiresIn: 3600})
	f.fake.AddProfile("tok1", `{"id":"u1","username":"henrik"}`)

	f.get(t, server.RouteOtherSecured)
	resp, _ := f.get(t, server.RouteAuth)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Location"), f.fake.URL()+"/oauth/authorize"))

	resp, _ = f.get(t, server.RouteAuthCallback+"?code=abc&state=state-1")
	require.Equal(t, server.RouteOtherSecured, resp.Header.Get("Location"))

	resp, body := f.get(t, server.RouteOtherSecured)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.JSONEq(t, `{"id":"u1","username":"henrik"}`, body)

	resp, body = f.get(t, server.RouteSecured)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "henrik")

	resp, _ = f.get(t, server.RouteLogout)
	require.Equal(t, "/", resp.Header.Get("Location"))
	resp, _ = f.get(t, server.RouteSecured)
	require.Equal(t, server.RouteAuth, resp.Header.Get("Location"))
}

func TestFailedLoginLandsOnLoginPage(t *testing.T) {
	f := setupTestFixture(t)

	f.get(t, server.RouteAuth)
	resp, _ := f.get(t, server.RouteAuthCallback+"?code=abc&state=forged")
	require.Equal(t, server.RouteAuthFailed, resp.Header.Get("Location"))

	resp, _ = f.get(t, server.RouteAuthFailed)
	require.Equal(t, server.RouteLogin, resp.Header.Get("Location"))

	resp, body := f.get(t, server.RouteLogin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Please login")
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupTestFixture(t)
	f.get(t, server.RouteSecured)

	resp, body := f.get(t, server.RouteMetrics)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `andbang_auth_reconcile_decisions_total{decision="unauthenticated"} 1`)
}

func TestRoutesAreListed(t *testing.T) {
	f := setupTestFixture(t)
	require.Contains(t, f.server.Routes(), "GET "+server.RouteAuthCallback)
	require.Contains(t, f.server.Routes(), "GET "+server.RouteMetrics)
}

func TestRecoverMiddleware(t *testing.T) {
	f := setupTestFixture(t)
	h := f.server.RecoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
