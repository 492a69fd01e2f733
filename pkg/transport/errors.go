package transport

import "errors"

var ErrInvalidHeaderMode = errors.New("transport.invalid_header_mode")
