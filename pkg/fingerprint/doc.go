// Package fingerprint derives a stable device identity for the terminal the
// dashboard runs on.
//
// The identity is a SHA-256 over a "|"-joined list of stable host
// components (machine id, hostname, platform, time zone offset). The first
// 16 bytes are hex encoded and prefixed with "dev-", giving values like
// "dev-9f86d081884c7d659a2feaa0c55ad015". The backend uses it for device
// login, so it must not change between runs on the same machine.
//
// Provider caches the computed value in storage and recomputes only when the
// cached value is missing or fails the format check. When no strong source
// (machine id or hostname) is available, ID returns Fallback, which is never
// cached so a later run can still produce a real identity.
//
// # Usage
//
//	p := fingerprint.NewProvider(st, fingerprint.WithLogger(log))
//	id := p.ID(ctx)
//
// Tests replace the host sources with WithSources.
package fingerprint
