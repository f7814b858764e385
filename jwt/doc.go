// Package jwt issues and verifies the signed bearer tokens that prove an
// authenticated session.
//
// Tokens are self-contained HS256 JWTs carrying the user id and session id.
// Signature validity alone is never sufficient to accept a token: the
// Service additionally requires the session to still exist server-side, so
// revocation wins over an otherwise valid signature.
package jwt
