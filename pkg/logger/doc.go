// Package logger builds the structured *slog.Logger shared by every posdash
// component and provides attribute helpers so log keys stay consistent.
//
// # Architecture
//
// New selects a text or JSON slog.Handler, applies static attributes and wraps
// the result in a context handler that runs registered ContextExtractor
// callbacks on every record. Request-scoped values such as the request id
// set by the dashboard router end up in the log line without being passed
// around explicitly.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.AppEnv, cfg.ServiceName),
//	    logger.WithLevelName(cfg.LogLevel),
//	    logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//
//	log.InfoContext(ctx, "login succeeded",
//	    logger.Component("gateway"),
//	    logger.Strategy("password"),
//	    logger.UserID(rec.AuthorizedUserID),
//	)
//
// Components accept a logger through their own WithLogger option and default
// to Discard, so library code never writes to stdout unless asked to.
//
// # Error Handling
//
// Error and Errors return an empty attribute for nil errors, which slog
// drops, so callers can log unconditionally:
//
//	log.Warn("session write failed", logger.Error(err))
package logger
