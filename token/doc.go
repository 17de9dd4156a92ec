// Package token mints and verifies the engine's three credential kinds:
// short-lived access tokens, long-lived refresh tokens, and identity-less
// guest session tokens.
//
// # Token layout
//
// All three are HS256-signed JWTs. Access and refresh tokens are signed
// with distinct secrets so a leaked access secret cannot forge refresh
// tokens and vice versa. A "type" claim pins each token to its kind; a
// refresh token presented on the access path (or the reverse) fails
// verification outright. Guest tokens share the access secret, carry only
// {type=guest, jti, exp}, and travel with a "guest_" prefix so boundary
// code can classify them without a failed signature check leaking into the
// normal auth error path.
//
// # Architecture boundaries
//
// Verification here is purely cryptographic: signature and expiry. Whether
// a refresh token is still authorized (present in the principal's
// allow-list) is the Engine's concern.
//
// # What this package must NOT do
//
//   - Perform any I/O or store lookups.
//   - Import any other authcore package.
package token
