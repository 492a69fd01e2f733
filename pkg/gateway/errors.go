package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/otot/posdash/pkg/metrics"
	"github.com/otot/posdash/pkg/session"
)

var (
	ErrInvalidCredentials = errors.New("gateway.invalid_credentials")
	ErrAccessDenied       = errors.New("gateway.access_denied")
	ErrServerError        = errors.New("gateway.server_error")
	ErrSystemNotFound     = errors.New("gateway.system_not_found")
	ErrInvalidDestination = errors.New("gateway.invalid_destination")
	ErrUserNotFound       = errors.New("gateway.user_not_found")
	ErrProfileUnavailable = errors.New("gateway.profile_unavailable")
	ErrInvalidRequest     = errors.New("gateway.invalid_request")

	// ErrInvalidSystemCredentials is the backend's "wrong system id or
	// password" variant of ErrInvalidCredentials.
	ErrInvalidSystemCredentials = fmt.Errorf("%w: system", ErrInvalidCredentials)
)

// Backend error codes carried in the errorCode field of a failure body.
const (
	CodeUserNotFound             = 1010
	CodeInvalidSystemCredentials = 9910
)

// backendCodes maps backend error codes to error kinds. A mapped code wins
// over the HTTP status.
var backendCodes = map[int]error{
	CodeUserNotFound:             ErrUserNotFound,
	CodeInvalidSystemCredentials: ErrInvalidSystemCredentials,
}

// statusTable maps HTTP statuses to error kinds for one kind of call.
type statusTable map[int]error

var (
	loginStatuses = statusTable{
		http.StatusUnauthorized: ErrInvalidCredentials,
		http.StatusForbidden:    ErrAccessDenied,
	}
	forgotStatuses = statusTable{
		http.StatusBadRequest: ErrInvalidDestination,
		http.StatusNotFound:   ErrSystemNotFound,
	}
	profileStatuses = statusTable{
		http.StatusUnauthorized: ErrInvalidCredentials,
		http.StatusForbidden:    ErrAccessDenied,
	}
)

// ResponseError describes a failed backend call.
type ResponseError struct {
	Op      string
	Status  int
	Code    int
	Message string
	Kind    error
}

func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("%s: %v (status %d", e.Op, e.Kind, e.Status)
	if e.Code != 0 {
		msg += fmt.Sprintf(", code %d", e.Code)
	}
	msg += ")"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *ResponseError) Unwrap() error {
	return e.Kind
}

// kinds lists the error kinds in the order used to label outcomes; more
// specific kinds come first.
var kinds = []error{
	ErrProfileUnavailable,
	ErrInvalidSystemCredentials,
	ErrInvalidCredentials,
	ErrAccessDenied,
	ErrSystemNotFound,
	ErrInvalidDestination,
	ErrUserNotFound,
	ErrInvalidRequest,
	ErrServerError,
}

// Kind returns the most specific gateway error kind in err, or nil.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

func outcome(err error) string {
	switch k := Kind(err); {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, session.ErrStaleCommit):
		return metrics.OutcomeStale
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(k, ErrInvalidSystemCredentials):
		return "invalid_system_credentials"
	case k != nil:
		return k.Error()[len("gateway."):]
	}
	return "error"
}
