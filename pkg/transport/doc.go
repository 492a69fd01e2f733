// Package transport implements the http.RoundTripper every backend call goes
// through.
//
// The Augmenter attaches the session token, tags the request with an
// X-Request-ID and watches responses for authorization failures (401, 403
// and the backend's session-expired status 419). On such a failure it clears
// the session store and sends the operator to the login screen, unless the
// operator is already there or the failing call was itself a login call.
//
// # Header contract
//
// The canonical form is "Authorization: Bearer <token>", attached through
// golang.org/x/oauth2. Older backend revisions expect the legacy form
//
//	token: {"token":"<token>"}
//
// which is selected with WithHeaderMode(HeaderLegacy). A request that
// already carries the header is sent as is.
//
// # Redirect de-duplication
//
// Several in-flight requests sent with the same token usually fail together
// once the token is revoked. The check-clear-navigate sequence runs in one
// critical section keyed by the token the failing request carried: only a
// failure for the token the store still holds clears it, so one invalidated
// token produces exactly one redirect and a late failure for an old token
// never clears a newer session.
//
// Responses are always handed back to the caller untouched.
package transport
