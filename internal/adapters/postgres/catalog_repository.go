package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
	"gorm.io/gorm"
)

type manufacturerRepository struct {
	db *gorm.DB
}

func (r *manufacturerRepository) Create(ctx context.Context, m domain.Manufacturer) (domain.Manufacturer, error) {
	rec := toManufacturerModel(m)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Manufacturer{}, err
	}
	return toDomainManufacturer(rec), nil
}

func (r *manufacturerRepository) Update(ctx context.Context, m domain.Manufacturer) (domain.Manufacturer, error) {
	rec := toManufacturerModel(m)
	res := r.db.WithContext(ctx).
		Model(&manufacturerModel{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{
			"name":        rec.Name,
			"description": rec.Description,
			"address":     rec.Address,
			"phone":       rec.Phone,
			"email":       rec.Email,
			"website":     rec.Website,
			"active":      rec.Active,
		})
	if res.Error != nil {
		return domain.Manufacturer{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Manufacturer{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, m.ID)
}

func (r *manufacturerRepository) GetByID(ctx context.Context, manufacturerID uuid.UUID) (domain.Manufacturer, error) {
	var rec manufacturerModel
	if err := r.db.WithContext(ctx).Where("id = ?", manufacturerID).Take(&rec).Error; err != nil {
		if isNotFound(err) {
			return domain.Manufacturer{}, domain.ErrNotFound
		}
		return domain.Manufacturer{}, err
	}
	return toDomainManufacturer(rec), nil
}

func (r *manufacturerRepository) List(ctx context.Context, filter ports.ManufacturerFilter) ([]domain.Manufacturer, int64, error) {
	query := r.db.WithContext(ctx).Model(&manufacturerModel{})
	if !filter.IncludeInactive {
		query = query.Where("active = ?", true)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []manufacturerModel
	if err := query.
		Order("name ASC").
		Limit(limitOrDefault(filter.Page)).
		Offset(filter.Page.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Manufacturer, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainManufacturer(row))
	}
	return out, total, nil
}

func (r *manufacturerRepository) Delete(ctx context.Context, manufacturerID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", manufacturerID).Delete(&manufacturerModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type documentRepository struct {
	db *gorm.DB
}

func (r *documentRepository) Create(ctx context.Context, doc domain.Document) (domain.Document, error) {
	rec := toDocumentModel(doc)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Document{}, fmt.Errorf("%w: storage key %s already indexed", domain.ErrConflict, doc.StorageKey)
		}
		return domain.Document{}, err
	}
	return toDomainDocument(rec), nil
}

func (r *documentRepository) Update(ctx context.Context, doc domain.Document) (domain.Document, error) {
	res := r.db.WithContext(ctx).
		Model(&documentModel{}).
		Where("id = ?", doc.ID).
		Updates(map[string]any{
			"file_name":   doc.FileName,
			"category":    string(doc.Category),
			"description": doc.Description,
		})
	if res.Error != nil {
		return domain.Document{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Document{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, doc.ID)
}

func (r *documentRepository) GetByID(ctx context.Context, documentID uuid.UUID) (domain.Document, error) {
	var rec documentModel
	if err := r.db.WithContext(ctx).Where("id = ?", documentID).Take(&rec).Error; err != nil {
		if isNotFound(err) {
			return domain.Document{}, domain.ErrNotFound
		}
		return domain.Document{}, err
	}
	return toDomainDocument(rec), nil
}

func (r *documentRepository) List(ctx context.Context, filter ports.DocumentFilter) ([]domain.Document, int64, error) {
	query := r.db.WithContext(ctx).Model(&documentModel{})
	if filter.Category != "" {
		query = query.Where("category = ?", string(filter.Category))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []documentModel
	if err := query.
		Order("created_at DESC").
		Limit(limitOrDefault(filter.Page)).
		Offset(filter.Page.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Document, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainDocument(row))
	}
	return out, total, nil
}

func (r *documentRepository) FirstByCategory(ctx context.Context, category domain.DocumentCategory) (domain.Document, error) {
	var rec documentModel
	if err := r.db.WithContext(ctx).
		Where("category = ?", string(category)).
		Order("created_at ASC").
		Order("id ASC").
		Take(&rec).Error; err != nil {
		if isNotFound(err) {
			return domain.Document{}, domain.ErrNotFound
		}
		return domain.Document{}, err
	}
	return toDomainDocument(rec), nil
}

func (r *documentRepository) Delete(ctx context.Context, documentID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", documentID).Delete(&documentModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type contentBlockRepository struct {
	db *gorm.DB
}

func (r *contentBlockRepository) Create(ctx context.Context, block domain.ContentBlock) (domain.ContentBlock, error) {
	rec := toContentBlockModel(block)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ContentBlock{}, fmt.Errorf("%w: slug %s already exists", domain.ErrConflict, block.Slug)
		}
		return domain.ContentBlock{}, err
	}
	return toDomainContentBlock(rec), nil
}

func (r *contentBlockRepository) Update(ctx context.Context, block domain.ContentBlock) (domain.ContentBlock, error) {
	res := r.db.WithContext(ctx).
		Model(&contentBlockModel{}).
		Where("id = ?", block.ID).
		Updates(map[string]any{
			"slug":          block.Slug,
			"title":         block.Title,
			"html_content":  block.HTMLContent,
			"display_order": block.Order,
			"page":          block.Page,
			"updated_at":    block.UpdatedAt,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return domain.ContentBlock{}, fmt.Errorf("%w: slug %s already exists", domain.ErrConflict, block.Slug)
		}
		return domain.ContentBlock{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ContentBlock{}, domain.ErrNotFound
	}
	return r.GetBySlug(ctx, block.Slug)
}

func (r *contentBlockRepository) GetBySlug(ctx context.Context, slug string) (domain.ContentBlock, error) {
	var rec contentBlockModel
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).Take(&rec).Error; err != nil {
		if isNotFound(err) {
			return domain.ContentBlock{}, domain.ErrNotFound
		}
		return domain.ContentBlock{}, err
	}
	return toDomainContentBlock(rec), nil
}

func (r *contentBlockRepository) List(ctx context.Context, page string) ([]domain.ContentBlock, error) {
	query := r.db.WithContext(ctx).Model(&contentBlockModel{})
	if page != "" {
		query = query.Where("page = ?", page)
	}
	var rows []contentBlockModel
	if err := query.Order("display_order ASC").Order("slug ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ContentBlock, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainContentBlock(row))
	}
	return out, nil
}

func (r *contentBlockRepository) Delete(ctx context.Context, slug string) error {
	res := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(&contentBlockModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Reorder skips unknown slugs; the count covers only rows that exist.
func (r *contentBlockRepository) Reorder(ctx context.Context, orders []ports.BlockOrder, at time.Time) (int, error) {
	updated := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range orders {
			res := tx.Model(&contentBlockModel{}).
				Where("slug = ?", item.Slug).
				Updates(map[string]any{
					"display_order": item.Order,
					"updated_at":    at,
				})
			if res.Error != nil {
				return res.Error
			}
			updated += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
