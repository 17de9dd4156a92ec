// Package password implements credential hashing and verification with
// bcrypt.
//
// # Output format
//
// Hashes are standard bcrypt strings ("$2a$..."), so records written by the
// Node/Python predecessors of this engine verify unchanged. Input longer
// than 72 bytes is truncated before hashing, matching bcrypt's effective
// input limit and the behavior of those predecessors.
//
// The [Hasher] supports transparent cost upgrades: if the stored hash was
// produced with a lower cost, [Hasher.NeedsRehash] returns true so the
// caller can re-hash on the next successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (length,
// reuse) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other authcore package.
//   - Log plaintext passwords at runtime.
package password
