package ports

import (
	"time"

	"github.com/google/uuid"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type AuthClaims struct {
	AdminID   uuid.UUID `json:"admin_id"`
	Email     string    `json:"email"`
	SessionID uuid.UUID `json:"session_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	KeyID     string    `json:"kid"`
}

type TokenSigner interface {
	Sign(claims AuthClaims) (string, error)
	ParseAndValidate(token string) (AuthClaims, error)
	PublicJWKs() ([]map[string]any, error)
}

// SecretGenerator produces download-token secrets. Implementations must be cryptographically random and URL safe.
type SecretGenerator interface {
	NewSecret() (string, error)
}

// HTMLSanitizer strips markup that must not reach public pages.
type HTMLSanitizer interface {
	Sanitize(html string) string
}
