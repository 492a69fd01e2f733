package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// HeaderMode selects how the session token is sent.
type HeaderMode string

const (
	HeaderBearer HeaderMode = "bearer"
	HeaderLegacy HeaderMode = "legacy"
)

const (
	// LegacyHeader carries the JSON wrapped token in HeaderLegacy mode.
	LegacyHeader = "token"

	// RequestIDHeader correlates client and backend logs.
	RequestIDHeader = "X-Request-ID"
)

// ParseHeaderMode validates a configured header mode.
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch m := HeaderMode(strings.ToLower(strings.TrimSpace(s))); m {
	case HeaderBearer, HeaderLegacy:
		return m, nil
	case "":
		return HeaderBearer, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidHeaderMode, s)
}

type legacyToken struct {
	Token string `json:"token"`
}

// SetToken writes token into req using mode. Empty tokens are ignored.
func SetToken(req *http.Request, mode HeaderMode, token string) {
	if token == "" {
		return
	}
	if mode == HeaderLegacy {
		b, _ := json.Marshal(legacyToken{Token: token})
		req.Header.Set(LegacyHeader, string(b))
		return
	}
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
}

// TokenFrom returns the token carried by req in mode and whether the header
// is present at all.
func TokenFrom(req *http.Request, mode HeaderMode) (string, bool) {
	if mode == HeaderLegacy {
		v := req.Header.Get(LegacyHeader)
		if v == "" {
			return "", false
		}
		var lt legacyToken
		if err := json.Unmarshal([]byte(v), &lt); err != nil {
			return v, true
		}
		return lt.Token, true
	}

	v := req.Header.Get("Authorization")
	if v == "" {
		return "", false
	}
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return v[7:], true
	}
	return v, true
}
