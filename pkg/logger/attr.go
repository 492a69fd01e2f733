package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Error logs err under "error". A nil error yields an empty attribute.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

func UserID(id int64) slog.Attr {
	return slog.Int64("user_id", id)
}

func SystemID(id string) slog.Attr {
	return slog.String("system_id", id)
}

// Strategy names the login strategy: password, device, token, otp or anonymous.
func Strategy(name string) slog.Attr {
	return slog.String("strategy", name)
}

func Status(code int) slog.Attr {
	return slog.Int("status", code)
}

func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// Attempt identifies a guard auto-login attempt.
func Attempt(id uint64) slog.Attr {
	return slog.Uint64("attempt", id)
}

func State(s string) slog.Attr {
	return slog.String("state", s)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
