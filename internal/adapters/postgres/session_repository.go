package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
	"gorm.io/gorm"
)

type adminRepository struct {
	db *gorm.DB
}

func (r *adminRepository) Create(ctx context.Context, email, passwordHash string, createdAt time.Time) (domain.AdminUser, error) {
	rec := adminUserModel{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.AdminUser{}, fmt.Errorf("%w: admin %s already exists", domain.ErrConflict, rec.Email)
		}
		return domain.AdminUser{}, err
	}
	return toDomainAdmin(rec), nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (domain.AdminUser, error) {
	var rec adminUserModel
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Take(&rec).Error; err != nil {
		if isNotFound(err) {
			return domain.AdminUser{}, domain.ErrNotFound
		}
		return domain.AdminUser{}, err
	}
	return toDomainAdmin(rec), nil
}

func (r *adminRepository) GetByID(ctx context.Context, adminID uuid.UUID) (domain.AdminUser, error) {
	var rec adminUserModel
	if err := r.db.WithContext(ctx).Where("admin_id = ?", adminID).Take(&rec).Error; err != nil {
		if isNotFound(err) {
			return domain.AdminUser{}, domain.ErrNotFound
		}
		return domain.AdminUser{}, err
	}
	return toDomainAdmin(rec), nil
}

func (r *adminRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&adminUserModel{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

type sessionRepository struct {
	db *gorm.DB
}

func (r *sessionRepository) Create(ctx context.Context, params ports.SessionCreateParams) (domain.AdminSession, error) {
	rec := adminSessionModel{
		AdminID:        params.AdminID,
		IPAddress:      nullableString(params.IPAddress),
		UserAgent:      params.UserAgent,
		CreatedAt:      params.LastActivityAt,
		LastActivityAt: params.LastActivityAt,
		ExpiresAt:      params.ExpiresAt,
		RefreshHash:    params.RefreshHash,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.AdminSession{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (domain.AdminSession, error) {
	var rec adminSessionModel
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&rec).Error; err != nil {
		if isNotFound(err) {
			return domain.AdminSession{}, domain.ErrNotFound
		}
		return domain.AdminSession{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) GetByRefreshHash(ctx context.Context, refreshHash string) (domain.AdminSession, error) {
	var rec adminSessionModel
	if err := r.db.WithContext(ctx).Where("refresh_hash = ?", refreshHash).Take(&rec).Error; err != nil {
		if isNotFound(err) {
			return domain.AdminSession{}, domain.ErrNotFound
		}
		return domain.AdminSession{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) TouchActivity(ctx context.Context, sessionID uuid.UUID, touchedAt, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&adminSessionModel{}).
		Where("session_id = ?", sessionID).
		Where("revoked_at IS NULL").
		Updates(map[string]any{
			"last_activity_at": touchedAt,
			"expires_at":       expiresAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrSessionRevoked
	}
	return nil
}

func (r *sessionRepository) RevokeByID(ctx context.Context, sessionID uuid.UUID, revokedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&adminSessionModel{}).
		Where("session_id = ?", sessionID).
		Where("revoked_at IS NULL").
		Update("revoked_at", revokedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&adminSessionModel{}).Where("session_id = ?", sessionID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}
