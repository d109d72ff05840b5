package token_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-andbang-auth/token"
	"github.com/stretchr/testify/require"
)

var grantTime = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func TestIsExpired(t *testing.T) {
	tok := token.New("tok1", "", 3600, grantTime)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"at grant time", grantTime, false},
		{"one second before expiry", grantTime.Add(3599 * time.Second), false},
		{"exactly at expiry", grantTime.Add(3600 * time.Second), true},
		{"after expiry", grantTime.Add(2 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tok.IsExpired(tt.now))
		})
	}
}

func TestIsExpiredWithoutGrantTime(t *testing.T) {
	tok := &token.Token{AccessToken: "tok1", ExpiresIn: 3600}
	require.True(t, tok.IsExpired(grantTime))
	require.True(t, tok.ExpiresAt().IsZero())

	var nilToken *token.Token
	require.True(t, nilToken.IsExpired(grantTime))
}

func TestIsExpiredWithoutLifetime(t *testing.T) {
	tok := token.New("tok1", "", 0, grantTime)
	require.True(t, tok.IsExpired(grantTime))
}

func TestRemaining(t *testing.T) {
	tok := token.New("tok1", "", 60, grantTime)
	require.Equal(t, 45*time.Second, tok.Remaining(grantTime.Add(15*time.Second)))
	require.Equal(t, time.Duration(0), tok.Remaining(grantTime.Add(time.Hour)))
}

func TestMatches(t *testing.T) {
	tok := token.New("tokA", "", 60, grantTime)
	require.True(t, tok.Matches("tokA"))
	require.False(t, tok.Matches("tokB"))
	require.False(t, tok.Matches("toka"))
	require.False(t, (&token.Token{}).Matches(""))
}

func TestSessionJSONShape(t *testing.T) {
	tok := token.New("tok1", "ref1", 3600, grantTime)
	b, err := json.Marshal(tok)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))
	require.Equal(t, "tok1", fields["access_token"])
	require.Equal(t, "ref1", fields["refresh_token"])
	require.EqualValues(t, 3600, fields["expires_in"])
	require.Contains(t, fields, "grant_date")
}

func TestClone(t *testing.T) {
	tok := token.New("tok1", "ref1", 3600, grantTime)
	c := tok.Clone()
	c.AccessToken = "changed"
	require.Equal(t, "tok1", tok.AccessToken)
	require.True(t, tok.HasRefreshToken())
}
