package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// Purpose distinguishes the independent token namespaces. A token issued for
// one purpose can never be consumed under another.
type Purpose string

const (
	PurposeVerifyEmail   Purpose = "verify_email"
	PurposeResetPassword Purpose = "reset_password"
	PurposeChangeEmail   Purpose = "change_email"
)

const (
	idSize     = 16
	secretSize = 32
	rawSize    = idSize + secretSize
)

// ErrMalformedToken is returned when a plaintext token cannot be decoded.
var ErrMalformedToken = errors.New("malformed token")

// Generate creates a fresh token. It returns the plaintext handed to the
// user, the record id it is stored under, and the secret hash to persist.
// The plaintext is never stored anywhere.
func Generate() (plaintext string, id string, secretHash [32]byte, err error) {
	var raw [rawSize]byte
	if _, err = rand.Read(raw[:]); err != nil {
		return "", "", secretHash, err
	}

	id = base64.RawURLEncoding.EncodeToString(raw[:idSize])
	secretHash = sha256.Sum256(raw[idSize:])
	plaintext = base64.RawURLEncoding.EncodeToString(raw[:])
	return plaintext, id, secretHash, nil
}

// Decode splits a plaintext token back into its record id and secret hash.
func Decode(plaintext string) (id string, secretHash [32]byte, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(plaintext)
	if err != nil {
		return "", secretHash, ErrMalformedToken
	}
	if len(raw) != rawSize {
		return "", secretHash, ErrMalformedToken
	}

	id = base64.RawURLEncoding.EncodeToString(raw[:idSize])
	secretHash = sha256.Sum256(raw[idSize:])
	return id, secretHash, nil
}
