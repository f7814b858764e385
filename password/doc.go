// Package password implements password hashing, verification, and the
// strength policy applied at registration and password change.
//
// # Output format
//
// Hashes are bcrypt digests in the standard $2a$/$2b$ modular crypt format,
// cost factor fixed at construction (default 12). The [Hasher] supports
// transparent cost upgrades: if the stored digest was produced with a lower
// cost, [Hasher.NeedsRehash] returns true so the caller can re-hash on the
// next successful login.
//
// # Architecture boundaries
//
// This package owns hashing, verification, and strength rules only. Lockout
// counting and audit logging are enforced by the Service.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive digests.
//   - Import any other authcore package.
//   - Log plaintext passwords at runtime.
package password
