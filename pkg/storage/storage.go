package storage

import "context"

// Persisted client state keys.
const (
	KeySession      = "OAuthData"
	KeyLoginDetails = "otot.pos.loginDetails"
	KeyAutoLogin    = "autoLogin"
	KeyDeviceID     = "otot.pos.deviceId"
	KeySystemID     = "systemId"
	KeyLanguage     = "preferred-language"
)

// Storage is a durable key/value store for small client-side blobs.
type Storage interface {
	// Get returns the value stored for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
