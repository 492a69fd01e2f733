package locale

import "errors"

var (
	ErrLanguageNotSupported = errors.New("locale.language_not_supported")
	ErrInvalidCatalog       = errors.New("locale.invalid_catalog")
)
