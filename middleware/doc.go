// Package middleware exposes HTTP middleware adapters over authcore.Engine
// token classification.
//
// # Guards
//
//   - [Guard] — requires a fully authenticated principal.
//   - [AllowGuest] — admits guest tokens and bare requests as well.
//   - [RequireRole] — layers a role check on top of [Guard].
//   - [RequireVerifiedOfficial] — officials only, and only after review.
//
// Each guard reads the Authorization header, calls Engine.Classify, and
// injects the resolved identity into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// the Engine.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Touch the principal store except through Engine lookups.
//   - Make authorization decisions beyond what the Engine reports.
package middleware
