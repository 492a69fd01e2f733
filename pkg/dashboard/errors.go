package dashboard

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("dashboard.unsupported_media_type")
	ErrInvalidJSON          = errors.New("dashboard.invalid_json")
)
