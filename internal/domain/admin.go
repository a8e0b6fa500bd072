package domain

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser is a back-office operator allowed to manage content and read submissions.
type AdminUser struct {
	AdminID      uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AdminSession backs a signed access token so logout can revoke it early.
type AdminSession struct {
	SessionID      uuid.UUID
	AdminID        uuid.UUID
	IPAddress      string
	UserAgent      string
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
	RevokedAt      *time.Time
	// RefreshHash is the SHA-256 digest of the session's refresh secret.
	RefreshHash string
}
