package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTokenWindow = 48 * time.Hour
	DefaultUsageLimit  = 3
)

// TokenState is the lifecycle position of a download token at a given instant.
// Exhausted and Expired are absorbing: no transition leaves them.
type TokenState string

const (
	TokenStateActive    TokenState = "active"
	TokenStateExhausted TokenState = "exhausted"
	TokenStateExpired   TokenState = "expired"
)

// DownloadToken grants a bounded number of downloads of one document category
// until an absolute expiry. Secret is only populated on the value returned at
// issuance; the store keeps SecretHash.
type DownloadToken struct {
	ID         uuid.UUID
	Email      string
	Secret     string
	SecretHash string
	Category   DocumentCategory
	ExpiresAt  time.Time
	UsageCount int
	UsageLimit int
	CreatedAt  time.Time
}

// IsValid reports whether the token admits another redemption at now.
func (t DownloadToken) IsValid(now time.Time) bool {
	return now.Before(t.ExpiresAt) && t.UsageCount < t.UsageLimit
}

// State classifies the token at now. Usage exhaustion wins over expiry when both hold.
func (t DownloadToken) State(now time.Time) TokenState {
	switch {
	case t.UsageCount >= t.UsageLimit:
		return TokenStateExhausted
	case !now.Before(t.ExpiresAt):
		return TokenStateExpired
	default:
		return TokenStateActive
	}
}

// RemainingUses never goes negative.
func (t DownloadToken) RemainingUses() int {
	if left := t.UsageLimit - t.UsageCount; left > 0 {
		return left
	}
	return 0
}
