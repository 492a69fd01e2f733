package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"regexp"
	"strings"

	"github.com/otot/posdash/pkg/logger"
	"github.com/otot/posdash/pkg/storage"
)

const (
	// Prefix starts every computed identity.
	Prefix = "dev-"

	// Fallback is returned by ID when the identity cannot be computed.
	Fallback = "fallback-device-id"
)

var validID = regexp.MustCompile(`^dev-[0-9a-f]{32}$`)

// Valid reports whether id has the shape of a computed identity.
func Valid(id string) bool {
	return validID.MatchString(id)
}

// Provider computes and caches the device identity.
type Provider struct {
	storage storage.Storage
	sources []Source
	logger  *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithSources replaces the host sources.
func WithSources(sources ...Source) Option {
	return func(p *Provider) {
		p.sources = sources
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProvider creates a Provider caching its result in st.
func NewProvider(st storage.Storage, opts ...Option) *Provider {
	p := &Provider{
		storage: st,
		sources: DefaultSources(),
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logger.Component("fingerprint"))
	return p
}

// ID returns the cached identity when it is well formed, otherwise computes
// and caches a new one. It never fails: Fallback is returned when no
// identity can be computed.
func (p *Provider) ID(ctx context.Context) string {
	if b, err := p.storage.Get(ctx, storage.KeyDeviceID); err == nil {
		if id := string(b); Valid(id) {
			return id
		}
		p.logger.DebugContext(ctx, "cached device id rejected, recomputing")
	}

	id, err := p.Compute(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "device identity unavailable, using fallback", logger.Error(err))
		return Fallback
	}

	if err := p.storage.Set(ctx, storage.KeyDeviceID, []byte(id)); err != nil {
		p.logger.WarnContext(ctx, "failed to cache device id", logger.Error(err))
	}
	return id
}

// Compute derives the identity from the configured sources without touching
// the cache.
func (p *Provider) Compute(ctx context.Context) (string, error) {
	components := make([]string, 0, len(p.sources))
	strong := false

	for _, src := range p.sources {
		v, err := src.Read(ctx)
		if err != nil || v == "" {
			p.logger.DebugContext(ctx, "device identity source empty",
				slog.String("source", src.Name), logger.Error(err))
			continue
		}
		if src.Strong {
			strong = true
		}
		components = append(components, src.Name+"="+v)
	}

	if !strong {
		return "", ErrDeviceIdentityUnavailable
	}

	sum := sha256.Sum256([]byte(strings.Join(components, "|")))
	return Prefix + hex.EncodeToString(sum[:16]), nil
}
