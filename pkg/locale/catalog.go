package locale

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/otot/posdash/pkg/gateway"
)

//go:embed messages.yaml
var defaultMessages []byte

// Catalog holds UI messages per language, keyed by dotted paths such as
// "login.error.access_denied".
type Catalog struct {
	messages map[string]map[string]string
}

// DefaultCatalog loads the embedded messages.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultMessages)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCatalog reads a YAML document with one top-level mapping per
// language.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no languages", ErrInvalidCatalog)
	}

	c := &Catalog{messages: make(map[string]map[string]string, len(raw))}
	for lang, tree := range raw {
		flat := make(map[string]string)
		if err := flatten("", tree, flat); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCatalog, lang, err)
		}
		c.messages[lang] = flat
	}
	return c, nil
}

func flatten(prefix string, tree map[string]any, out map[string]string) error {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("key %q: expected string or mapping, got %T", key, v)
		}
	}
	return nil
}

var placeholder = regexp.MustCompile(`%\{([^}]+)\}`)

// T returns the message for key in lang with %{name} placeholders replaced
// from the name/value pairs in args. Missing messages fall back to Default,
// then to the key itself.
func (c *Catalog) T(lang, key string, args ...string) string {
	tmpl, ok := c.messages[lang][key]
	if !ok {
		tmpl, ok = c.messages[Default][key]
	}
	if !ok {
		tmpl = key
	}

	params := make(map[string]string, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		params[args[i]] = args[i+1]
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := params[m[2:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// Has reports whether lang defines key itself.
func (c *Catalog) Has(lang, key string) bool {
	_, ok := c.messages[lang][key]
	return ok
}

// errorKeys maps error kinds to message keys, most specific first.
var errorKeys = []struct {
	kind error
	key  string
}{
	{gateway.ErrInvalidSystemCredentials, "login.error.invalid_system_credentials"},
	{gateway.ErrInvalidCredentials, "login.error.invalid_credentials"},
	{gateway.ErrAccessDenied, "login.error.access_denied"},
	{gateway.ErrUserNotFound, "login.error.user_not_found"},
	{gateway.ErrSystemNotFound, "forgot.error.system_not_found"},
	{gateway.ErrInvalidDestination, "forgot.error.invalid_destination"},
	{gateway.ErrProfileUnavailable, "login.error.profile_unavailable"},
}

// Message returns the user-facing text for an interactive login or forgot
// password error. Unknown errors read as a server error.
func (c *Catalog) Message(lang string, err error) string {
	if err == nil {
		return ""
	}
	for _, ek := range errorKeys {
		if errors.Is(err, ek.kind) {
			return c.T(lang, ek.key)
		}
	}
	return c.T(lang, "login.error.server_error")
}
