package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
	"gorm.io/gorm"
)

type leadRepository struct {
	db *gorm.DB
}

func (r *leadRepository) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	rec := toLeadModel(lead)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Lead{}, err
	}
	return toDomainLead(rec), nil
}

func (r *leadRepository) CreateWithOutbox(ctx context.Context, lead domain.Lead, event ports.OutboxEvent) (domain.Lead, error) {
	rec := toLeadModel(lead)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		outbox := toOutboxModel(event)
		return tx.Create(&outbox).Error
	})
	if err != nil {
		return domain.Lead{}, err
	}
	return toDomainLead(rec), nil
}

func (r *leadRepository) GetByID(ctx context.Context, leadID uuid.UUID) (domain.Lead, error) {
	var rec leadModel
	if err := r.db.WithContext(ctx).Where("id = ?", leadID).Take(&rec).Error; err != nil {
		if isNotFound(err) {
			return domain.Lead{}, domain.ErrNotFound
		}
		return domain.Lead{}, err
	}
	return toDomainLead(rec), nil
}

func (r *leadRepository) List(ctx context.Context, filter ports.LeadFilter) ([]domain.Lead, int64, error) {
	query := r.db.WithContext(ctx).Model(&leadModel{})
	if filter.InquiryType != "" {
		query = query.Where("inquiry_type = ?", string(filter.InquiryType))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []leadModel
	if err := query.
		Order("created_at DESC").
		Limit(limitOrDefault(filter.Page)).
		Offset(filter.Page.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Lead, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainLead(row))
	}
	return out, total, nil
}

func (r *leadRepository) ListAll(ctx context.Context) ([]domain.Lead, error) {
	var rows []leadModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Lead, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainLead(row))
	}
	return out, nil
}

func (r *leadRepository) Delete(ctx context.Context, leadID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", leadID).Delete(&leadModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rfqRepository struct {
	db *gorm.DB
}

func (r *rfqRepository) CreateWithOutbox(ctx context.Context, rfq domain.RFQSubmission, event ports.OutboxEvent) (domain.RFQSubmission, error) {
	rec := toRFQModel(rfq)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		outbox := toOutboxModel(event)
		return tx.Create(&outbox).Error
	})
	if err != nil {
		return domain.RFQSubmission{}, err
	}
	return toDomainRFQ(rec), nil
}

func (r *rfqRepository) GetByID(ctx context.Context, rfqID uuid.UUID) (domain.RFQSubmission, error) {
	var rec rfqModel
	if err := r.db.WithContext(ctx).Where("id = ?", rfqID).Take(&rec).Error; err != nil {
		if isNotFound(err) {
			return domain.RFQSubmission{}, domain.ErrNotFound
		}
		return domain.RFQSubmission{}, err
	}
	return toDomainRFQ(rec), nil
}

func (r *rfqRepository) List(ctx context.Context, page ports.Page) ([]domain.RFQSubmission, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&rfqModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []rfqModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limitOrDefault(page)).
		Offset(page.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.RFQSubmission, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainRFQ(row))
	}
	return out, total, nil
}

func (r *rfqRepository) ListAll(ctx context.Context) ([]domain.RFQSubmission, error) {
	var rows []rfqModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.RFQSubmission, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainRFQ(row))
	}
	return out, nil
}

func (r *rfqRepository) Delete(ctx context.Context, rfqID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", rfqID).Delete(&rfqModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
