// Package authcore is the session, credential, and abuse-control engine of
// the Samudra Sahayak platform: it issues, rotates, and revokes
// authentication tokens, enforces account lockout after repeated failed
// logins, manages short-lived anonymous guest sessions, issues and
// validates one-time codes for account verification and password reset,
// and throttles request volume per client.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build]. Multi-device use of a single account is expected;
// the refresh-token allow-list and the rate limiter's timestamp lists are
// the only shared mutable state, and both are updated through atomic
// per-document (or per-key) operations.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// the collaborator interfaces ([PrincipalStore], [Notifier]), and value
// types. Token mechanics, hashing, code generation, and window accounting
// live in the token, password, otp, and rate subpackages.
//
// Persistence is an external collaborator reached only through
// [PrincipalStore]: find by identifier or id, save, and single-document
// atomic mutations (push-with-trim of refresh tokens, pull by value, set
// lock/code fields). The engine never assumes anything about the store
// beyond that contract; memstore provides a process-local reference
// implementation.
//
// # What this package must NOT do
//
//   - Render transport frames: HTTP status mapping belongs to the caller
//     (the middleware package shows the canonical mapping).
//   - Deliver email or SMS — the [Notifier] is fire-and-forget and its
//     failure never aborts the operation that triggered it.
//   - Issue a token, or commit a lock or counter update, on any path that
//     fails with [ErrInternal].
package authcore
