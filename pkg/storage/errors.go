package storage

import "errors"

var (
	// ErrNotFound indicates no value is stored for the key
	ErrNotFound = errors.New("storage.not_found")

	// ErrCorrupted indicates the stored value cannot be decoded
	ErrCorrupted = errors.New("storage.corrupted")

	// ErrWriteFailed indicates the backend rejected a write
	ErrWriteFailed = errors.New("storage.write_failed")

	// ErrInvalidKey indicates an empty or unsafe key
	ErrInvalidKey = errors.New("storage.invalid_key")

	// ErrInvalidConfig indicates a backend was constructed with bad parameters
	ErrInvalidConfig = errors.New("storage.invalid_config")
)
