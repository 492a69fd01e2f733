package session

import (
	"context"
	"log/slog"

	"github.com/otot/posdash/pkg/logger"
)

// ChangeKind tells whether a change stored or removed the session.
type ChangeKind int

const (
	ChangeSet ChangeKind = iota + 1
	ChangeCleared
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSet:
		return "set"
	case ChangeCleared:
		return "cleared"
	}
	return "unknown"
}

// Change is published to subscribers after every Set and Clear.
// Record is a private copy and is nil for ChangeCleared.
type Change struct {
	Kind   ChangeKind
	Record *Record
}

// Subscribe returns a channel receiving subsequent changes in call order.
// Changes made before the call are not replayed. A slow reader may miss
// intermediate changes but always receives the latest one. The channel is
// closed once ctx is done.
func (s *Store) Subscribe(ctx context.Context) <-chan Change {
	ch := make(chan Change, s.bufferSize)

	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[uint64]chan Change)
	}
	s.nextSub++
	id := s.nextSub
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// publish must be called with s.mu held. A subscriber whose buffer is full
// loses its oldest pending change, so the newest change is always
// delivered and the last one read matches the store.
func (s *Store) publish(ctx context.Context, kind ChangeKind, rec *Record) {
	for id, ch := range s.subs {
		change := Change{Kind: kind, Record: rec.Clone()}
		for {
			select {
			case ch <- change:
			default:
				select {
				case old := <-ch:
					s.logger.WarnContext(ctx, "subscriber buffer full, oldest change dropped",
						logger.Component("session"),
						slog.Uint64("subscriber", id),
						slog.String("kind", old.Kind.String()),
					)
				default:
				}
				continue
			}
			break
		}
	}
}
