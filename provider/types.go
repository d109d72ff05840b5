package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// UserProfile is the JSON document returned by the API's /me endpoint.
// The middleware never interprets it; applications decode what they need.
type UserProfile json.RawMessage

// Decode unmarshals the profile into v.
func (p UserProfile) Decode(v any) error {
	if len(p) == 0 {
		return errors.New("empty user profile")
	}
	return json.Unmarshal(p, v)
}

// MarshalJSON keeps the profile verbatim when a session is serialised.
func (p UserProfile) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(p).MarshalJSON()
}

// UnmarshalJSON stores a copy of the raw profile, treating null as absent.
func (p *UserProfile) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*p = nil
		return nil
	}
	*p = append((*p)[:0], b...)
	return nil
}

// tokenResponse is the body of a successful /oauth/validate call.
type tokenResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token,omitempty"`
	TokenType    string  `json:"token_type,omitempty"`
	ExpiresIn    seconds `json:"expires_in"`
}

// seconds accepts expires_in as either a JSON number or a numeric string.
type seconds int

func (s *seconds) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*s = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		if str == "" {
			*s = 0
			return nil
		}
		n, err := strconv.Atoi(str)
		if err != nil {
			return err
		}
		*s = seconds(n)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	f, err := n.Float64()
	if err != nil {
		return err
	}
	*s = seconds(f)
	return nil
}
