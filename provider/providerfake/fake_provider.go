// Package providerfake runs an in-process andbang accounts service and API
// for tests.
package providerfake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

const (
	EndpointAuthorize = "/oauth/authorize"
	EndpointToken     = "/oauth/access_token"
	EndpointValidate  = "/oauth/validate"
	EndpointProfile   = "/me"
)

// Grant is what the token endpoint hands out for a code or refresh token.
type Grant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// FakeProvider answers the four provider endpoints from in-memory tables
// and counts every call it receives.
type FakeProvider struct {
	ClientID     string
	ClientSecret string

	srv *httptest.Server

	mu           sync.Mutex
	codes        map[string]Grant
	refreshes    map[string]Grant
	valid        map[string]int
	echoes       map[string]string
	profiles     map[string]string
	failures     map[string]int
	calls        map[string]int
	forms        map[string]url.Values
	bearerTokens []string
}

// New starts a fake provider that accepts clientID and clientSecret. The
// server is closed when the test ends.
func New(t testing.TB, clientID, clientSecret string) *FakeProvider {
	t.Helper()

	f := &FakeProvider{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		codes:        make(map[string]Grant),
		refreshes:    make(map[string]Grant),
		valid:        make(map[string]int),
		echoes:       make(map[string]string),
		profiles:     make(map[string]string),
		failures:     make(map[string]int),
		calls:        make(map[string]int),
		forms:        make(map[string]url.Values),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+EndpointToken, f.tokenHandler)
	mux.HandleFunc("POST "+EndpointValidate, f.validateHandler)
	mux.HandleFunc("GET "+EndpointProfile, f.profileHandler)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

// URL serves as both the accounts and the API base URL.
func (f *FakeProvider) URL() string {
	return f.srv.URL
}

// Close stops the server early, useful to simulate network failures.
func (f *FakeProvider) Close() {
	f.srv.Close()
}

// AddCode registers an authorization code; the grant it yields also
// becomes a valid access token.
func (f *FakeProvider) AddCode(code string, g Grant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = g
	f.valid[g.AccessToken] = g.ExpiresIn
}

// AddRefreshToken registers a refresh token and the grant it yields.
func (f *FakeProvider) AddRefreshToken(refreshToken string, g Grant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes[refreshToken] = g
	f.valid[g.AccessToken] = g.ExpiresIn
}

// AddValidToken makes accessToken pass validation.
func (f *FakeProvider) AddValidToken(accessToken string, expiresIn int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.valid[accessToken] = expiresIn
}

// EchoInstead makes validation of submitted answer 200 with returned.
func (f *FakeProvider) EchoInstead(submitted, returned string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.echoes[submitted] = returned
}

// AddProfile sets the /me document for accessToken.
func (f *FakeProvider) AddProfile(accessToken, profileJSON string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[accessToken] = profileJSON
}

// FailWith makes endpoint answer status for every call.
func (f *FakeProvider) FailWith(endpoint string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[endpoint] = status
}

// Calls is the number of requests endpoint has received.
func (f *FakeProvider) Calls(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

// TotalCalls is the number of requests across all endpoints.
func (f *FakeProvider) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// LastForm is the form body of the latest request to endpoint.
func (f *FakeProvider) LastForm(endpoint string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forms[endpoint]
}

// BearerTokens lists the tokens presented to /me, in order.
func (f *FakeProvider) BearerTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bearerTokens...)
}

// ResetCalls forgets call counts and recorded forms.
func (f *FakeProvider) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
	f.forms = make(map[string]url.Values)
	f.bearerTokens = nil
}

func (f *FakeProvider) record(endpoint string, r *http.Request) (int, bool) {
	_ = r.ParseForm()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[endpoint]++
	f.forms[endpoint] = r.PostForm
	status, failing := f.failures[endpoint]
	return status, failing
}

func (f *FakeProvider) tokenHandler(w http.ResponseWriter, r *http.Request) {
	if status, failing := f.record(EndpointToken, r); failing {
		writeJSON(w, status, map[string]string{"error": "server_error"})
		return
	}
	if r.PostForm.Get("client_id") != f.ClientID || r.PostForm.Get("client_secret") != f.ClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	f.mu.Lock()
	var (
		g  Grant
		ok bool
	)
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		g, ok = f.codes[r.PostForm.Get("code")]
		delete(f.codes, r.PostForm.Get("code"))
	case "refresh_token":
		g, ok = f.refreshes[r.PostForm.Get("refresh_token")]
	}
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}
	writeJSON(w, http.StatusOK, grantBody(g))
}

func (f *FakeProvider) validateHandler(w http.ResponseWriter, r *http.Request) {
	if status, failing := f.record(EndpointValidate, r); failing {
		writeJSON(w, status, map[string]string{"error": "server_error"})
		return
	}
	if r.PostForm.Get("client_id") != f.ClientID || r.PostForm.Get("client_secret") != f.ClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	submitted := r.PostForm.Get("access_token")
	f.mu.Lock()
	returned, echoed := f.echoes[submitted]
	expiresIn, valid := f.valid[submitted]
	f.mu.Unlock()

	switch {
	case echoed:
		writeJSON(w, http.StatusOK, map[string]any{"access_token": returned, "expires_in": 3600})
	case valid:
		writeJSON(w, http.StatusOK, map[string]any{"access_token": submitted, "expires_in": expiresIn})
	default:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
	}
}

func (f *FakeProvider) profileHandler(w http.ResponseWriter, r *http.Request) {
	if status, failing := f.record(EndpointProfile, r); failing {
		writeJSON(w, status, map[string]string{"error": "server_error"})
		return
	}

	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.mu.Lock()
	f.bearerTokens = append(f.bearerTokens, bearer)
	profile, ok := f.profiles[bearer]
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(profile))
}

func grantBody(g Grant) map[string]any {
	body := map[string]any{
		"access_token": g.AccessToken,
		"token_type":   "bearer",
		"expires_in":   g.ExpiresIn,
	}
	if g.RefreshToken != "" {
		body["refresh_token"] = g.RefreshToken
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
