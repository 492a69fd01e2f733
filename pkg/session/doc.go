// Package session holds the authenticated session of the dashboard operator
// on the client side.
//
// A Store keeps the current Record in memory, mirrors it into durable
// storage (see package storage) and publishes every change to subscribers.
// A Record is authenticated if and only if its token is non-empty; a nil
// Record means anonymous.
//
// # Architecture
//
//	┌──────────┐  Set / Commit / Clear  ┌─────────┐   blob   ┌─────────┐
//	│ callers  │ ─────────────────────► │  Store  │ ───────► │ Storage │
//	└──────────┘                        └─────────┘          └─────────┘
//	                                         │
//	                                         │ Change (in call order)
//	                                         ▼
//	                                   subscribers
//
// The Store is the single source of truth: derived views such as User are
// computed from the current record and change notifications are the only
// push primitive.
//
// Persistence is best effort. A corrupted blob is logged and read as "no
// session"; a failed write is logged and the in-memory state is still
// updated so the UI keeps working.
//
// LoginDetailsStore persists the reduced login details (credentials blanked)
// together with the auto-login preference and the last used system id. Those
// drive silent device-based re-authentication.
//
// # Usage
//
//	st := storage.NewMemoryStorage()
//	store := session.NewStore(ctx, st, session.WithLogger(log))
//
//	changes := store.Subscribe(ctx)
//	store.Set(ctx, &session.Record{Token: "tok", AuthorizedUserID: 7})
//	<-changes // session.Change{Kind: session.ChangeSet, ...}
//
//	if store.IsAuthenticated(ctx) { ... }
//	store.Purge(ctx) // logout: session and stored login details
//
// The Store implements oauth2.TokenSource so it can feed the bearer token of
// outbound requests directly.
package session
