// Package session provides the per-device session model and its Redis-backed
// store.
//
// Sessions are stored as compact binary blobs keyed by session id, with a
// per-user index set used for enumeration and revoke-all. The store is the
// server-side source of truth for revocation: a bearer token whose session
// has been deleted here must be rejected no matter how valid its signature.
package session
