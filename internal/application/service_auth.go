package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
)

// EnsureBootstrapAdmin creates the first admin account when none exists yet.
// It is a no-op once any admin is stored.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" && password == "" {
		return false, nil
	}
	count, err := s.admins.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	normalized, err := normalizeEmail(email)
	if err != nil {
		return false, err
	}
	if err := domain.ValidateAdminPassword(password); err != nil {
		return false, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.admins.Create(ctx, normalized, hash, s.nowFn()); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	appLogger().InfoContext(ctx, "bootstrap admin created",
		"operation", "ensure_bootstrap_admin",
		"outcome", "success",
	)
	return true, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, err
	}

	lockKey := "login:" + email
	if s.lockouts != nil {
		lockState, err := s.lockouts.Get(ctx, lockKey)
		if err == nil && lockState.LockedUntil != nil && lockState.LockedUntil.After(s.nowFn()) {
			return LoginResponse{}, domain.ErrAccountLocked
		}
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		s.recordLoginFailure(ctx, lockKey, "ADMIN_NOT_FOUND")
		return LoginResponse{}, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(admin.PasswordHash, req.Password); err != nil {
		s.recordLoginFailure(ctx, lockKey, "INVALID_PASSWORD")
		return LoginResponse{}, domain.ErrInvalidCredentials
	}
	if s.lockouts != nil {
		_ = s.lockouts.Clear(ctx, lockKey)
	}

	refresh, err := s.secrets.NewSecret()
	if err != nil {
		return LoginResponse{}, fmt.Errorf("generate refresh secret: %w", err)
	}
	now := s.nowFn()
	session, err := s.sessions.Create(ctx, ports.SessionCreateParams{
		AdminID:        admin.AdminID,
		IPAddress:      req.IPAddress,
		UserAgent:      req.UserAgent,
		ExpiresAt:      now.Add(s.cfg.SessionTTL),
		LastActivityAt: now,
		RefreshHash:    hashToken(refresh),
	})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("create session: %w", err)
	}

	token, err := s.tokenSigner.Sign(ports.AuthClaims{
		AdminID:   admin.AdminID,
		Email:     admin.Email,
		SessionID: session.SessionID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}
	return LoginResponse{
		Access:    token,
		Refresh:   refresh,
		SessionID: session.SessionID,
		ExpiresIn: int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) recordLoginFailure(ctx context.Context, lockKey, reason string) {
	appLogger().WarnContext(ctx, "admin login rejected",
		"operation", "login",
		"outcome", "failure",
		"reason", reason,
	)
	if s.lockouts == nil {
		return
	}
	if _, err := s.lockouts.RecordFailure(ctx, lockKey, s.nowFn(), s.cfg.FailedLoginThreshold, s.cfg.LockoutDuration); err != nil {
		appLogger().WarnContext(ctx, "lockout state unavailable",
			"operation", "login",
			"outcome", "warning",
			"error", err,
		)
	}
}

// ValidateToken verifies the signature and that the backing session is still live.
func (s *Service) ValidateToken(ctx context.Context, jwtToken string) (ports.AuthClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(jwtToken)
	if err != nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	if s.revocations != nil {
		if revoked, _ := s.revocations.IsRevoked(ctx, claims.SessionID); revoked {
			return ports.AuthClaims{}, domain.ErrSessionRevoked
		}
	}
	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	if err := s.checkSession(session); err != nil {
		return ports.AuthClaims{}, err
	}
	return claims, nil
}

func (s *Service) checkSession(session domain.AdminSession) error {
	now := s.nowFn()
	switch {
	case session.RevokedAt != nil:
		return domain.ErrSessionRevoked
	case session.ExpiresAt.Before(now):
		return domain.ErrSessionExpired
	case session.CreatedAt.Add(s.cfg.SessionAbsoluteTTL).Before(now):
		return domain.ErrSessionExpired
	}
	return nil
}

// Refresh exchanges the session's refresh secret for a new access token. The access
// token it replaces may already be expired. The session's idle expiry slides forward
// by SessionTTL but never past CreatedAt+SessionAbsoluteTTL.
func (s *Service) Refresh(ctx context.Context, refreshSecret string) (RefreshResponse, error) {
	if strings.TrimSpace(refreshSecret) == "" {
		return RefreshResponse{}, domain.ErrUnauthorized
	}
	session, err := s.sessions.GetByRefreshHash(ctx, hashToken(refreshSecret))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return RefreshResponse{}, domain.ErrUnauthorized
		}
		return RefreshResponse{}, err
	}
	if s.revocations != nil {
		if revoked, _ := s.revocations.IsRevoked(ctx, session.SessionID); revoked {
			return RefreshResponse{}, domain.ErrSessionRevoked
		}
	}
	if err := s.checkSession(session); err != nil {
		return RefreshResponse{}, err
	}
	admin, err := s.admins.GetByID(ctx, session.AdminID)
	if err != nil {
		return RefreshResponse{}, domain.ErrUnauthorized
	}

	now := s.nowFn()
	expiresAt := now.Add(s.cfg.SessionTTL)
	if hardCap := session.CreatedAt.Add(s.cfg.SessionAbsoluteTTL); expiresAt.After(hardCap) {
		expiresAt = hardCap
	}
	if err := s.sessions.TouchActivity(ctx, session.SessionID, now, expiresAt); err != nil {
		if errors.Is(err, domain.ErrSessionRevoked) {
			return RefreshResponse{}, err
		}
		return RefreshResponse{}, fmt.Errorf("extend session: %w", err)
	}

	accessExpiry := now.Add(s.cfg.AccessTokenTTL)
	if accessExpiry.After(expiresAt) {
		accessExpiry = expiresAt
	}
	newToken, err := s.tokenSigner.Sign(ports.AuthClaims{
		AdminID:   admin.AdminID,
		Email:     admin.Email,
		SessionID: session.SessionID,
		IssuedAt:  now,
		ExpiresAt: accessExpiry,
	})
	if err != nil {
		return RefreshResponse{}, fmt.Errorf("sign refreshed token: %w", err)
	}
	return RefreshResponse{
		Access:    newToken,
		ExpiresIn: int64(accessExpiry.Sub(now).Seconds()),
	}, nil
}

func (s *Service) Logout(ctx context.Context, jwtToken string) error {
	claims, err := s.tokenSigner.ParseAndValidate(jwtToken)
	if err != nil {
		return domain.ErrUnauthorized
	}
	now := s.nowFn()
	if err := s.sessions.RevokeByID(ctx, claims.SessionID, now); err != nil {
		return err
	}
	if s.revocations != nil {
		_ = s.revocations.MarkRevoked(ctx, claims.SessionID, now.Add(s.cfg.AccessTokenTTL))
	}
	return nil
}

func (s *Service) PublicJWKs() ([]map[string]any, error) {
	return s.tokenSigner.PublicJWKs()
}
