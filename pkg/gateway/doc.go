// Package gateway is the client of the backend authentication API.
//
// Every login strategy (password, device, token, OTP, anonymous) returns a
// normalized *session.Record and, on success, commits it to the session
// store before returning. Named logins fetch the user profile with the new
// token and merge it into the record first, so a record without its profile
// is never stored.
//
// # Error Handling
//
// Failures are *ResponseError values wrapping one of the package sentinels,
// so callers branch with errors.Is:
//
//	rec, err := gw.Login(ctx, details)
//	switch {
//	case errors.Is(err, gateway.ErrInvalidCredentials):
//	    // 401, or backend code 9910 (ErrInvalidSystemCredentials)
//	case errors.Is(err, gateway.ErrAccessDenied):
//	    // 403
//	case errors.Is(err, gateway.ErrServerError):
//	    // >= 500 and anything unmapped
//	}
//
// A failure body of the form {"errorCode": 1010, "message": "..."} is
// decoded when present. Known codes are listed in one table and take
// precedence over the HTTP status.
//
// # Usage
//
//	aug := transport.New(store, nav)
//	gw, err := gateway.New(cfg.BackendURL, store,
//	    gateway.WithHTTPClient(aug.Client(cfg.RequestTimeout)),
//	    gateway.WithLogger(log),
//	)
//	rec, err := gw.Login(ctx, session.LoginDetails{SystemID: "1001", UserName: "alice", Password: "secret"})
package gateway
