package application

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/domain"
)

// Capability is what a route needs from its caller. The serving layer checks it
// before any service method runs.
type Capability string

const (
	CapabilityPublicRead  Capability = "public_read"
	CapabilityPublicWrite Capability = "public_write"
	CapabilityAdminRead   Capability = "admin_read"
	CapabilityAdminWrite  Capability = "admin_write"
)

// Principal is the resolved caller. The zero value is an anonymous visitor.
type Principal struct {
	AdminID uuid.UUID
	Email   string
	Admin   bool
}

// IsPublicWrite reports whether anonymous callers may submit through this capability.
func IsPublicWrite(c Capability) bool { return c == CapabilityPublicWrite }

// IsAdminRead reports whether reading through this capability is reserved to admins.
func IsAdminRead(c Capability) bool { return c == CapabilityAdminRead }

func Allowed(c Capability, p Principal) bool {
	switch c {
	case CapabilityPublicRead, CapabilityPublicWrite:
		return true
	case CapabilityAdminRead, CapabilityAdminWrite:
		return p.Admin
	default:
		return false
	}
}

// ResolvePrincipal turns an optional bearer token into a caller. A missing token is anonymous.
// An invalid token is an error only when the capability needs an admin; public routes fall
// back to anonymous.
func (s *Service) ResolvePrincipal(ctx context.Context, c Capability, bearer string) (Principal, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		if Allowed(c, Principal{}) {
			return Principal{}, nil
		}
		return Principal{}, domain.ErrUnauthorized
	}
	claims, err := s.ValidateToken(ctx, bearer)
	if err != nil {
		if Allowed(c, Principal{}) {
			return Principal{}, nil
		}
		return Principal{}, err
	}
	p := Principal{AdminID: claims.AdminID, Email: claims.Email, Admin: true}
	if !Allowed(c, p) {
		return Principal{}, domain.ErrForbidden
	}
	return p, nil
}
