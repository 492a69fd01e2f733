package locale

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"github.com/otot/posdash/pkg/logger"
	"github.com/otot/posdash/pkg/storage"
)

// Supported UI languages. The first one is the default.
var (
	English = language.English
	Hebrew  = language.Hebrew
	Arabic  = language.Arabic
	Russian = language.Russian

	supported = []language.Tag{English, Hebrew, Arabic, Russian}
	matcher   = language.NewMatcher(supported)
)

// Default is the language used when nothing else is known.
const Default = "en"

// Languages returns the supported language codes, default first.
func Languages() []string {
	out := make([]string, len(supported))
	for i, t := range supported {
		out[i] = t.String()
	}
	return out
}

// Normalize maps code to a supported language code.
func Normalize(code string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrLanguageNotSupported, code)
	}
	base, _ := tag.Base()
	for _, t := range supported {
		if b, _ := t.Base(); b == base {
			return t.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrLanguageNotSupported, code)
}

// Match picks the best supported language for an Accept-Language header.
func Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return supported[idx].String()
}

// IsRTL reports whether code is written right to left.
func IsRTL(code string) bool {
	switch code {
	case Hebrew.String(), Arabic.String():
		return true
	}
	return false
}

// Preferences stores the preferred UI language.
type Preferences struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewPreferences creates Preferences backed by st.
func NewPreferences(st storage.Storage, l *slog.Logger) *Preferences {
	if l == nil {
		l = logger.Discard()
	}
	return &Preferences{storage: st, logger: l.With(logger.Component("locale"))}
}

// Get returns the stored language, or Default when none or an unsupported
// one is stored.
func (p *Preferences) Get(ctx context.Context) string {
	b, err := p.storage.Get(ctx, storage.KeyLanguage)
	if err != nil {
		return Default
	}
	code, err := Normalize(string(b))
	if err != nil {
		p.logger.DebugContext(ctx, "stored language ignored", logger.Error(err))
		return Default
	}
	return code
}

// Set stores code after normalising it and returns the stored value.
func (p *Preferences) Set(ctx context.Context, code string) (string, error) {
	norm, err := Normalize(code)
	if err != nil {
		return "", err
	}
	if err := p.storage.Set(ctx, storage.KeyLanguage, []byte(norm)); err != nil {
		return "", err
	}
	return norm, nil
}
