package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type downloadTokenRepository struct {
	db *gorm.DB
}

func (r *downloadTokenRepository) Create(ctx context.Context, params ports.CreateDownloadTokenParams) (domain.DownloadToken, error) {
	rec := downloadTokenModel{
		Email:        params.Email,
		SecretHash:   params.SecretHash,
		Category:     string(params.Category),
		ExpiresAt:    params.ExpiresAt,
		MaxDownloads: params.UsageLimit,
		CreatedAt:    params.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.DownloadToken{}, fmt.Errorf("%w: download secret collision", domain.ErrIntegrity)
		}
		return domain.DownloadToken{}, err
	}
	return toDomainDownloadToken(rec), nil
}

func (r *downloadTokenRepository) GetBySecretHash(ctx context.Context, secretHash string) (domain.DownloadToken, error) {
	var rec downloadTokenModel
	if err := r.db.WithContext(ctx).Where("secret_hash = ?", secretHash).Take(&rec).Error; err != nil {
		if isNotFound(err) {
			return domain.DownloadToken{}, domain.ErrNotFound
		}
		return domain.DownloadToken{}, err
	}
	return toDomainDownloadToken(rec), nil
}

// IncrementUsage is a single conditional UPDATE: Postgres row locking serialises
// concurrent redemptions so download_count never passes max_downloads.
func (r *downloadTokenRepository) IncrementUsage(ctx context.Context, tokenID uuid.UUID, now time.Time) (domain.DownloadToken, error) {
	var rows []downloadTokenModel
	res := incrementUsage(r.db.WithContext(ctx), tokenID, now, &rows)
	if res.Error != nil {
		return domain.DownloadToken{}, res.Error
	}
	if res.RowsAffected == 0 || len(rows) == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&downloadTokenModel{}).Where("id = ?", tokenID).Count(&exists).Error; err != nil {
			return domain.DownloadToken{}, err
		}
		if exists == 0 {
			return domain.DownloadToken{}, domain.ErrNotFound
		}
		return domain.DownloadToken{}, fmt.Errorf("%w: download token no longer valid", domain.ErrForbidden)
	}
	return toDomainDownloadToken(rows[0]), nil
}

func incrementUsage(db *gorm.DB, tokenID uuid.UUID, now time.Time, dest *[]downloadTokenModel) *gorm.DB {
	return db.Model(dest).
		Clauses(clause.Returning{}).
		Where("id = ?", tokenID).
		Where("download_count < max_downloads").
		Where("expires_at > ?", now).
		UpdateColumn("download_count", gorm.Expr("download_count + 1"))
}

func (r *downloadTokenRepository) Delete(ctx context.Context, tokenID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", tokenID).Delete(&downloadTokenModel{}).Error
}

func (r *downloadTokenRepository) List(ctx context.Context, page ports.Page) ([]domain.DownloadToken, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&downloadTokenModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []downloadTokenModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limitOrDefault(page)).
		Offset(page.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.DownloadToken, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainDownloadToken(row))
	}
	return out, total, nil
}
