// Package httpserver runs the local dashboard HTTP server with graceful
// shutdown and health checks.
//
// # Architecture
//
// Server listens on its address and serves the handler in a goroutine. Run
// blocks until the context is cancelled, SIGINT or SIGTERM arrives, or the
// listener fails; it then calls http.Server.Shutdown bounded by the
// shutdown timeout. Liveness and Readiness are plain handlers meant to be
// mounted on a router.
//
// # Usage
//
//	srv := httpserver.New(":8080",
//		httpserver.WithShutdownTimeout(10*time.Second),
//		httpserver.WithLogger(log),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// # Error Handling
//
// Listen and serve failures are joined with ErrStart, shutdown failures with
// ErrShutdown. A second Run returns ErrStart joined with ErrAlreadyRunning.
package httpserver
