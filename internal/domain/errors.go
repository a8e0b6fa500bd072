package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Unknown download secrets map here too, so callers cannot tell "never issued" apart from other misses.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden is returned when a resource exists but may not be used, e.g. an expired download token.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials hides whether email or password failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked signals temporary lockout after repeated failed admin logins.
	ErrAccountLocked       = errors.New("account locked")
	ErrSessionRevoked      = errors.New("session revoked")
	ErrSessionExpired      = errors.New("session expired")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConflict            = errors.New("conflict")
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	ErrRateLimited         = errors.New("rate limited")
	// ErrDeliveryFailed wraps any outbound mail transport failure.
	ErrDeliveryFailed = errors.New("notification delivery failed")
	// ErrIntegrity marks store invariants that were violated, such as a download secret collision.
	// It is never retried.
	ErrIntegrity = errors.New("integrity violation")
	// ErrArtifactUnavailable is returned when a gated artifact is known but its bytes cannot be read.
	ErrArtifactUnavailable = errors.New("artifact unavailable")
	// ErrNoArtifact is a not-found variant: the token is fine but its category holds no document.
	ErrNoArtifact = fmt.Errorf("%w: no artifact in category", ErrNotFound)
)
