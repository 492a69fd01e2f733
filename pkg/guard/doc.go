// Package guard decides whether a navigation to a protected screen may
// proceed.
//
// Every Check runs a small state machine:
//
//	Unchecked ──► Allowed                      (login screen or authenticated)
//	    │
//	    └──► AutoLoginAttempted ──► Allowed    (device login succeeded)
//	                          └──► Denied      (no opt-in, or login failed)
//
// Transitions are validated against an explicit table; Unchecked cannot go
// straight to Denied.
//
// Allowed checks record the target as the current screen of the navigator,
// which lets the request transport tell a session rejected mid-use from a
// failed login.
//
// Auto-login uses the stored reduced login details and the device identity.
// A failed attempt purges the session and the stored details, so the next
// login must be interactive. Denied checks navigate to the login screen
// with the original target in the returnUrl query parameter. Nothing is
// retried.
//
// Each Check gets an attempt id and its own cancellable context. A newer
// Check or CancelPending cancels older attempts; their results are
// discarded: the session store refuses the late commit, nothing is purged
// and no navigation happens. An attempt whose device login already
// committed counts as allowed even when cancelled afterwards.
//
// # Usage
//
//	g := guard.New(store, details, deviceIDs, gw, nav, guard.WithLogger(log))
//	if d := g.Check(ctx, "/reports"); !d.Allowed() {
//	    return // already redirected to d.Redirect
//	}
//
// Middleware adapts the guard to net/http routers.
package guard
