// Package dashboard serves the local HTTP front of the POS dashboard.
//
// The router exposes the login screen actions as JSON endpoints, guards the
// dashboard and account layout routes with the session guard, proxies
// /api/* to the backend through the session-aware transport and publishes
// Prometheus metrics and health checks.
//
// # Routes
//
//	GET  /login            login form defaults (?systemId=, ?returnUrl=)
//	POST /login            interactive login
//	POST /logout           sign out
//	POST /forgot-password  request a password reset link
//	GET  /session          current session without its token
//	PUT  /language         change the preferred language
//	GET  /dashboard        guarded, also every account layout
//	*    /api/*            backend proxy
//	GET  /metrics, /healthz, /readyz
//
// Every JSON body is wrapped as {"data": ...} or {"error": {"code", "message",
// "details"}}. Unknown routes answer a JSON 404.
package dashboard
