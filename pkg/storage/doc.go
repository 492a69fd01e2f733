// Package storage provides the durable key/value storage used by the client
// session lifecycle. It plays the role a browser's localStorage plays for a
// web front-end: small opaque blobs addressed by well-known keys.
//
// # Architecture
//
// Every backend satisfies the Storage interface:
//
//	type Storage interface {
//	    Get(ctx context.Context, key string) ([]byte, error)
//	    Set(ctx context.Context, key string, value []byte) error
//	    Delete(ctx context.Context, key string) error
//	}
//
// Available backends:
//
//   - MemoryStorage – concurrent in-memory map, used by tests and kiosks that
//     must forget everything on restart.
//   - FileStorage – one file per key inside a directory. Writes go to a
//     temporary file that is renamed into place.
//   - RedisStorage – go-redis backed storage for dashboard servers that share
//     state between instances.
//   - EncryptedStorage – decorator that seals values with AES-256-GCM using a
//     key derived through HKDF-SHA256.
//
// # Keys
//
// The persisted client state uses the constants KeySession, KeyLoginDetails,
// KeyAutoLogin, KeyDeviceID, KeySystemID and KeyLanguage.
//
// # Error Handling
//
//   - ErrNotFound   – no value stored for the key
//   - ErrCorrupted  – a value exists but cannot be decoded
//   - ErrWriteFailed – the backend rejected a write
//
// Callers in this module treat ErrCorrupted and ErrWriteFailed as "no data":
// they are logged and never propagated to the UI layer.
package storage
