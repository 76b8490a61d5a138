package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// ErrInvalidCredential covers both a wrong password and a wrong or
	// expired OTP. Handlers surface it as a generic invalid-credential
	// response that does not reveal whether the email exists.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrLocked means the identity's lockout window is still active.
	ErrLocked = errors.New("account locked")

	// ErrReactivationExpired means a restore was attempted after the
	// reactivation window elapsed.
	ErrReactivationExpired = errors.New("reactivation window expired")

	// ErrProfileMissing means an identity exists with no profile in either
	// the active or the deleted store. This is an integrity fault, distinct
	// from an ordinary not-found.
	ErrProfileMissing = errors.New("profile missing")

	// ErrStorageUnavailable wraps transient connectivity faults on the
	// durable or ephemeral store.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
