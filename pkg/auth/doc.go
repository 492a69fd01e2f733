// Package auth drives the login screen: it validates the login form, runs
// the interactive login, remembers the operator's choices and decides
// where to go next.
//
// # Usage
//
//	c := auth.New(gw, details, deviceIDs, nav, auth.WithGuard(g))
//
//	res, err := c.Submit(ctx, auth.Form{
//	    SystemID:  "1001",
//	    UserName:  "alice",
//	    Password:  "secret",
//	    AutoLogin: true,
//	}, returnURL)
//	if err != nil {
//	    msg := catalog.Message(lang, err) // for gateway errors
//	}
//
// A successful Submit stores the reduced login details (no user name or
// password), the auto-login preference and the system id, then navigates
// to the requested return target, or to the main layout of the account
// type when none was requested.
//
// # Error Handling
//
// Form problems are returned as *ValidationError, which wraps
// ErrInvalidForm and lists one FieldError per failed rule. Backend failures
// are the gateway's errors, unchanged.
package auth
