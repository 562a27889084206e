package auth

import "errors"

var (
	// ErrTokenInvalid covers malformed tokens, wrong algorithms, bad
	// signatures, unresolvable key ids and claim verification failures.
	ErrTokenInvalid = errors.New("auth: invalid token")
	// ErrTokenExpired is distinguished from ErrTokenInvalid so callers can
	// tell "refresh your token" apart from "access denied".
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrKeyProviderUnavailable surfaces only when the key cache is empty
	// and a refresh attempt failed.
	ErrKeyProviderUnavailable = errors.New("auth: signing keys unavailable")
	// ErrKeyNotFound means the key set was fetched but carries no entry
	// for the requested key id.
	ErrKeyNotFound = errors.New("auth: signing key not found")
)
