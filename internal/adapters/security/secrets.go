package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// SecretBytes is the entropy of one download secret (384 bits).
const SecretBytes = 48

// RandomSecretGenerator draws download secrets from crypto/rand.
type RandomSecretGenerator struct{}

func NewRandomSecretGenerator() RandomSecretGenerator {
	return RandomSecretGenerator{}
}

// NewSecret returns 64 URL-safe characters with no padding.
func (RandomSecretGenerator) NewSecret() (string, error) {
	buf := make([]byte, SecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
