package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateIdentity     = errors.New("email already registered")
	ErrInvalidCode           = errors.New("invalid verification code")
	ErrCodeExpired           = errors.New("verification code has expired")
	ErrNotVerifiedOrNotFound = errors.New("user not verified or not found")
	ErrBadRequest            = errors.New("bad request")
	ErrValidation            = errors.New("validation failed")

	// ErrDispatchFailure marks a code that was stored but could not be delivered.
	ErrDispatchFailure = errors.New("verification code dispatch failed")

	// Infrastructure failures. Never shown to clients.
	ErrPersistence = errors.New("persistence failure")
	ErrHashing     = errors.New("hashing failure")
)
