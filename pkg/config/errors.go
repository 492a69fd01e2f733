package config

import "errors"

var (
	// ErrParsingConfig is returned when environment variables cannot be
	// parsed into the config struct
	ErrParsingConfig = errors.New("config.parse_failed")

	// ErrInvalidConfig is returned when parsed values do not fit together
	ErrInvalidConfig = errors.New("config.invalid")
)
