package session

import "errors"

var (
	// ErrNoToken indicates the current session is anonymous
	ErrNoToken = errors.New("session.no_token")

	// ErrStaleCommit indicates a commit was refused because its context was
	// cancelled before the write
	ErrStaleCommit = errors.New("session.stale_commit")
)
