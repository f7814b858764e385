// Package token implements single-use verification tokens for email
// verification, password reset, and email change flows.
//
// A plaintext token is an opaque base64url string carrying a random id and a
// random secret. Only a SHA-256 hash of the secret is persisted, so a storage
// dump cannot be replayed as live tokens. Consumption is atomic: under
// concurrent redemption exactly one caller wins and the record is destroyed.
package token
