package session

import (
	"log/slog"

	"github.com/otot/posdash/pkg/logger"
)

// DefaultBufferSize is the capacity of each subscriber channel.
const DefaultBufferSize = 16

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence and delivery problems.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBufferSize sets the per-subscriber channel capacity.
func WithBufferSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

func defaultLogger() *slog.Logger {
	return logger.Discard()
}
