package application

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
)

// ListManufacturers is the public listing: active manufacturers only, summary projection.
func (s *Service) ListManufacturers(ctx context.Context, page, size int) (PageResult[ManufacturerSummary], error) {
	bounds, page, size := pageBounds(page, size)
	items, total, err := s.makers.List(ctx, ports.ManufacturerFilter{Page: bounds})
	if err != nil {
		return PageResult[ManufacturerSummary]{}, err
	}
	out := make([]ManufacturerSummary, 0, len(items))
	for _, m := range items {
		out = append(out, ManufacturerSummary{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Phone:       m.Phone,
			Email:       m.Email,
			Website:     m.Website,
		})
	}
	return newPageResult(out, total, page, size), nil
}

// ListAllManufacturers is the admin listing, inactive entries included.
func (s *Service) ListAllManufacturers(ctx context.Context, page, size int) (PageResult[ManufacturerView], error) {
	bounds, page, size := pageBounds(page, size)
	items, total, err := s.makers.List(ctx, ports.ManufacturerFilter{IncludeInactive: true, Page: bounds})
	if err != nil {
		return PageResult[ManufacturerView]{}, err
	}
	out := make([]ManufacturerView, 0, len(items))
	for _, m := range items {
		out = append(out, toManufacturerView(m))
	}
	return newPageResult(out, total, page, size), nil
}

// GetManufacturer hides inactive manufacturers from non-admin callers.
func (s *Service) GetManufacturer(ctx context.Context, id uuid.UUID, includeInactive bool) (ManufacturerView, error) {
	m, err := s.makers.GetByID(ctx, id)
	if err != nil {
		return ManufacturerView{}, err
	}
	if !m.Active && !includeInactive {
		return ManufacturerView{}, domain.ErrNotFound
	}
	return toManufacturerView(m), nil
}

func (s *Service) CreateManufacturer(ctx context.Context, in ManufacturerInput) (ManufacturerView, error) {
	m := domain.Manufacturer{Active: true}
	if err := applyManufacturerInput(&m, in, false); err != nil {
		return ManufacturerView{}, err
	}
	m.CreatedAt = s.nowFn()
	stored, err := s.makers.Create(ctx, m)
	if err != nil {
		return ManufacturerView{}, err
	}
	return toManufacturerView(stored), nil
}

// UpdateManufacturer applies a full (PUT) or partial (PATCH) update.
func (s *Service) UpdateManufacturer(ctx context.Context, id uuid.UUID, in ManufacturerInput, partial bool) (ManufacturerView, error) {
	m, err := s.makers.GetByID(ctx, id)
	if err != nil {
		return ManufacturerView{}, err
	}
	if err := applyManufacturerInput(&m, in, partial); err != nil {
		return ManufacturerView{}, err
	}
	stored, err := s.makers.Update(ctx, m)
	if err != nil {
		return ManufacturerView{}, err
	}
	return toManufacturerView(stored), nil
}

func (s *Service) DeleteManufacturer(ctx context.Context, id uuid.UUID) error {
	return s.makers.Delete(ctx, id)
}

func applyManufacturerInput(m *domain.Manufacturer, in ManufacturerInput, partial bool) error {
	errs := domain.FieldErrors{}
	text := func(field string, src *string, dst *string, maxLen int, required bool) {
		if src == nil {
			if required && !partial {
				errs.Add(field, "This field is required.")
			}
			return
		}
		if required {
			*dst = errs.RequireText(field, *src, maxLen)
			return
		}
		*dst = errs.OptionalText(field, *src, maxLen)
	}
	text("name", in.Name, &m.Name, 255, true)
	text("description", in.Description, &m.Description, 0, true)
	text("address", in.Address, &m.Address, 0, true)
	text("phone", in.Phone, &m.Phone, 50, true)
	if in.Email != nil {
		m.Email = validateEmailField(errs, "email", *in.Email)
	} else if !partial {
		errs.Add("email", "This field is required.")
	}
	if in.Website != nil {
		site := errs.OptionalText("website", *in.Website, 200)
		if site != "" {
			if u, err := url.Parse(site); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs.Add("website", "Enter a valid URL.")
			}
		}
		m.Website = site
	}
	if in.Active != nil {
		m.Active = *in.Active
	}
	return errs.Err()
}

func toManufacturerView(m domain.Manufacturer) ManufacturerView {
	return ManufacturerView{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Address:     m.Address,
		Phone:       m.Phone,
		Email:       m.Email,
		Website:     m.Website,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
	}
}

// UploadDocument stores the file bytes first, then indexes them. The object is removed
// again if the index write fails.
func (s *Service) UploadDocument(ctx context.Context, req DocumentUploadRequest) (DocumentView, error) {
	errs := domain.FieldErrors{}
	category, err := domain.ParseDocumentCategory(strings.TrimSpace(req.Category))
	if err != nil {
		errs.Add("category", fmt.Sprintf("%q is not a valid choice.", req.Category))
	}
	if req.File.Body == nil {
		errs.Add("file", "No file was submitted.")
	}
	name := strings.TrimSpace(req.FileName)
	if name == "" {
		name = strings.TrimSpace(req.File.FileName)
	}
	name = errs.RequireText("file_name", name, 255)
	description := s.sanitizeHTML(errs.OptionalText("description", req.Description, 0))
	if err := errs.Err(); err != nil {
		return DocumentView{}, err
	}

	key := fmt.Sprintf("documents/%s/%s-%s", category, uuid.NewString(), safeFileName(req.File.FileName))
	obj, err := s.objects.Put(ctx, key, req.File.Body, req.File.Size, req.File.ContentType)
	if err != nil {
		return DocumentView{}, fmt.Errorf("store document: %w", err)
	}
	doc, err := s.documents.Create(ctx, domain.Document{
		FileName:    name,
		StorageKey:  obj.Key,
		ContentType: obj.ContentType,
		SizeBytes:   obj.Size,
		Category:    category,
		Description: description,
		CreatedAt:   s.nowFn(),
	})
	if err != nil {
		_ = s.objects.Delete(context.WithoutCancel(ctx), obj.Key)
		return DocumentView{}, err
	}
	return s.toDocumentView(ctx, doc, true), nil
}

func (s *Service) UpdateDocument(ctx context.Context, id uuid.UUID, in DocumentInput) (DocumentView, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return DocumentView{}, err
	}
	errs := domain.FieldErrors{}
	if in.FileName != nil {
		doc.FileName = errs.RequireText("file_name", *in.FileName, 255)
	}
	if in.Category != nil {
		category, err := domain.ParseDocumentCategory(strings.TrimSpace(*in.Category))
		if err != nil {
			errs.Add("category", fmt.Sprintf("%q is not a valid choice.", *in.Category))
		}
		doc.Category = category
	}
	if in.Description != nil {
		doc.Description = s.sanitizeHTML(errs.OptionalText("description", *in.Description, 0))
	}
	if err := errs.Err(); err != nil {
		return DocumentView{}, err
	}
	stored, err := s.documents.Update(ctx, doc)
	if err != nil {
		return DocumentView{}, err
	}
	return s.toDocumentView(ctx, stored, true), nil
}

func (s *Service) GetDocument(ctx context.Context, id uuid.UUID, admin bool) (DocumentView, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return DocumentView{}, err
	}
	return s.toDocumentView(ctx, doc, admin), nil
}

func (s *Service) ListDocuments(ctx context.Context, q DocumentQuery, admin bool) (PageResult[DocumentView], error) {
	bounds, page, size := pageBounds(q.Page, q.PageSize)
	filter := ports.DocumentFilter{Page: bounds}
	if raw := strings.TrimSpace(q.Category); raw != "" {
		category, err := domain.ParseDocumentCategory(raw)
		if err != nil {
			return PageResult[DocumentView]{}, err
		}
		filter.Category = category
	}
	items, total, err := s.documents.List(ctx, filter)
	if err != nil {
		return PageResult[DocumentView]{}, err
	}
	out := make([]DocumentView, 0, len(items))
	for _, d := range items {
		out = append(out, s.toDocumentView(ctx, d, admin))
	}
	return newPageResult(out, total, page, size), nil
}

func (s *Service) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, doc.StorageKey); err != nil {
		appLogger().WarnContext(ctx, "document object cleanup failed",
			"operation", "delete_document",
			"outcome", "warning",
			"document_id", id,
			"error", err,
		)
	}
	return nil
}

// toDocumentView omits file_url for the token-gated category unless the caller is an admin.
func (s *Service) toDocumentView(ctx context.Context, d domain.Document, admin bool) DocumentView {
	view := DocumentView{
		ID:              d.ID,
		FileName:        d.FileName,
		Category:        string(d.Category),
		CategoryDisplay: d.Category.DisplayName(),
		Description:     d.Description,
		CreatedAt:       d.CreatedAt,
	}
	if d.Category == s.cfg.ArtifactCategoryDefault && !admin {
		return view
	}
	if u, err := s.objects.URL(ctx, d.StorageKey); err == nil {
		view.FileURL = u
	}
	return view
}
