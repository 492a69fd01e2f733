package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/otot/posdash/pkg/logger"
	"github.com/otot/posdash/pkg/storage"
)

// Store is the single source of truth for the client session.
// It is safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	storage    storage.Storage
	logger     *slog.Logger
	bufferSize int
	current    *Record
	subs       map[uint64]chan Change
	nextSub    uint64
}

// NewStore creates a store backed by st and loads any persisted session.
func NewStore(ctx context.Context, st storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage:    st,
		logger:     defaultLogger(),
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("session"))

	s.current = s.load(ctx)
	return s
}

// Reload replaces the in-memory session with the persisted one. It does not
// notify subscribers.
func (s *Store) Reload(ctx context.Context) {
	rec := s.load(ctx)

	s.mu.Lock()
	s.current = rec
	s.mu.Unlock()
}

// Get returns a copy of the current session, or nil when anonymous.
func (s *Store) Get(ctx context.Context) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// User returns a copy of the current profile, or nil.
func (s *Store) User(ctx context.Context) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.User.Clone()
}

// IsAuthenticated reports whether the current session has a token.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.IsAuthenticated()
}

// Set stores rec and notifies subscribers. Persistence is best effort: a
// failed write is logged and the in-memory session is updated anyway.
// Set(ctx, nil) is equivalent to Clear.
func (s *Store) Set(ctx context.Context, rec *Record) {
	if rec == nil {
		s.Clear(ctx)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(ctx, rec)
}

// Commit is Set for results of asynchronous work. It refuses to write when
// ctx is already done, so a cancelled login attempt never replaces a newer
// session. The check and the write happen under the same lock.
func (s *Store) Commit(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return errors.Join(ErrStaleCommit, err)
	}
	if rec == nil {
		s.clearLocked(ctx)
		return nil
	}
	s.setLocked(ctx, rec)
	return nil
}

// Clear removes the session from memory and storage. It is idempotent and
// notifies subscribers on every call.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx)
}

// Purge clears the session and forgets the stored login details, which
// disables auto-login until the next interactive login.
func (s *Store) Purge(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked(ctx)
	for _, key := range []string{storage.KeyLoginDetails, storage.KeyAutoLogin} {
		if err := s.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
			s.logger.WarnContext(ctx, "failed to delete login data", slog.String("key", key), logger.Error(err))
		}
	}
}

// Token implements oauth2.TokenSource.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current.IsAuthenticated() {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: s.current.Token, TokenType: "Bearer"}, nil
}

func (s *Store) setLocked(ctx context.Context, rec *Record) {
	rec = rec.Clone()

	data, err := json.Marshal(rec)
	if err == nil {
		err = s.storage.Set(context.WithoutCancel(ctx), storage.KeySession, data)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to persist session", logger.Error(err))
	}

	s.current = rec
	s.publish(ctx, ChangeSet, rec)
}

func (s *Store) clearLocked(ctx context.Context) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), storage.KeySession); err != nil {
		s.logger.WarnContext(ctx, "failed to delete persisted session", logger.Error(err))
	}

	s.current = nil
	s.publish(ctx, ChangeCleared, nil)
}

func (s *Store) load(ctx context.Context) *Record {
	data, err := s.storage.Get(ctx, storage.KeySession)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to read persisted session", logger.Error(err))
		}
		return nil
	}

	var rec *Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.WarnContext(ctx, "persisted session is corrupted",
			logger.Error(errors.Join(storage.ErrCorrupted, err)))
		return nil
	}
	return rec
}
