package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/otot/posdash/pkg/storage"
	"github.com/otot/posdash/pkg/transport"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config is the complete runtime configuration.
type Config struct {
	BackendURL      string        `env:"POSDASH_BACKEND_URL,required"`
	Storage         string        `env:"POSDASH_STORAGE" envDefault:"file"`
	StorageDir      string        `env:"POSDASH_STORAGE_DIR"`
	RedisURL        string        `env:"POSDASH_REDIS_URL"`
	EncryptionKey   string        `env:"POSDASH_ENCRYPTION_KEY"`
	TokenHeader     string        `env:"POSDASH_TOKEN_HEADER" envDefault:"bearer"`
	RequestTimeout  time.Duration `env:"POSDASH_REQUEST_TIMEOUT" envDefault:"30s"`
	ListenAddr      string        `env:"POSDASH_LISTEN_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"POSDASH_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	ServiceName     string        `env:"POSDASH_SERVICE_NAME" envDefault:"posdash"`
	AppEnv          string        `env:"APP_ENV" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL"`
}

type loadOptions struct {
	files   []string
	environ map[string]string
}

// Option configures Load.
type Option func(*loadOptions)

// WithEnvFiles replaces the default ".env" file list. Missing files are
// skipped.
func WithEnvFiles(files ...string) Option {
	return func(o *loadOptions) { o.files = files }
}

// WithEnvironment parses vars instead of the process environment. No env
// files are read.
func WithEnvironment(vars map[string]string) Option {
	return func(o *loadOptions) { o.environ = vars }
}

// Load reads and validates the configuration.
func Load(opts ...Option) (*Config, error) {
	o := &loadOptions{files: []string{".env"}}
	for _, opt := range opts {
		opt(o)
	}

	envOpts := env.Options{}
	if o.environ != nil {
		envOpts.Environment = o.environ
	} else {
		for _, f := range o.files {
			if _, err := os.Stat(f); err != nil {
				continue
			}
			if err := godotenv.Load(f); err != nil {
				return nil, errors.Join(ErrParsingConfig, err)
			}
		}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("POSDASH_BACKEND_URL %q is not an absolute URL", c.BackendURL))
	}

	switch c.Storage {
	case StorageFile, StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("POSDASH_REDIS_URL is required with redis storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("POSDASH_STORAGE %q is not one of file, memory, redis", c.Storage))
	}

	if _, err := c.Key(); err != nil {
		errs = append(errs, err)
	}
	if _, err := transport.ParseHeaderMode(c.TokenHeader); err != nil {
		errs = append(errs, err)
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("POSDASH_REQUEST_TIMEOUT must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("POSDASH_SHUTDOWN_TIMEOUT must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// Key decodes the encryption key. It returns nil when encryption is off.
func (c *Config) Key() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("POSDASH_ENCRYPTION_KEY is not valid base64: %w", err)
	}
	if len(key) != storage.KeySize {
		return nil, fmt.Errorf("POSDASH_ENCRYPTION_KEY must decode to %d bytes, got %d", storage.KeySize, len(key))
	}
	return key, nil
}

// HeaderMode returns the parsed token header contract.
func (c *Config) HeaderMode() transport.HeaderMode {
	m, err := transport.ParseHeaderMode(c.TokenHeader)
	if err != nil {
		return transport.HeaderBearer
	}
	return m
}

// StoragePath returns the file backend directory, defaulting to
// $XDG_CONFIG_HOME/posdash (or the OS equivalent).
func (c *Config) StoragePath() (string, error) {
	if c.StorageDir != "" {
		return c.StorageDir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "posdash"), nil
}
