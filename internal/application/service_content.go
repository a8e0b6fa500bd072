package application

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
)

func (s *Service) ListContentBlocks(ctx context.Context, page string) ([]ContentBlockView, error) {
	blocks, err := s.blocks.List(ctx, strings.TrimSpace(page))
	if err != nil {
		return nil, err
	}
	out := make([]ContentBlockView, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, toContentBlockView(b))
	}
	return out, nil
}

func (s *Service) GetContentBlock(ctx context.Context, slug string) (ContentBlockView, error) {
	b, err := s.blocks.GetBySlug(ctx, slug)
	if err != nil {
		return ContentBlockView{}, err
	}
	return toContentBlockView(b), nil
}

func (s *Service) CreateContentBlock(ctx context.Context, in ContentBlockInput) (ContentBlockView, error) {
	b := domain.ContentBlock{Page: domain.DefaultContentPage}
	if err := s.applyContentInput(&b, in, false); err != nil {
		return ContentBlockView{}, err
	}
	now := s.nowFn()
	b.CreatedAt, b.UpdatedAt = now, now
	stored, err := s.blocks.Create(ctx, b)
	if err != nil {
		return ContentBlockView{}, err
	}
	return toContentBlockView(stored), nil
}

// UpdateContentBlock edits the block addressed by slug. The slug itself may be changed.
func (s *Service) UpdateContentBlock(ctx context.Context, slug string, in ContentBlockInput, partial bool) (ContentBlockView, error) {
	b, err := s.blocks.GetBySlug(ctx, slug)
	if err != nil {
		return ContentBlockView{}, err
	}
	if err := s.applyContentInput(&b, in, partial); err != nil {
		return ContentBlockView{}, err
	}
	b.UpdatedAt = s.nowFn()
	stored, err := s.blocks.Update(ctx, b)
	if err != nil {
		return ContentBlockView{}, err
	}
	return toContentBlockView(stored), nil
}

func (s *Service) DeleteContentBlock(ctx context.Context, slug string) error {
	return s.blocks.Delete(ctx, slug)
}

// ReorderContentBlocks sets display order for many blocks at once. Unknown slugs are skipped.
func (s *Service) ReorderContentBlocks(ctx context.Context, req ReorderRequest) (ReorderResponse, error) {
	if len(req.Blocks) == 0 {
		return ReorderResponse{}, fmt.Errorf("%w: blocks array is required", domain.ErrInvalidInput)
	}
	orders := make([]ports.BlockOrder, 0, len(req.Blocks))
	for _, it := range req.Blocks {
		slug := strings.TrimSpace(it.Slug)
		if slug == "" {
			continue
		}
		orders = append(orders, ports.BlockOrder{Slug: slug, Order: it.Order})
	}
	updated, err := s.blocks.Reorder(ctx, orders, s.nowFn())
	if err != nil {
		return ReorderResponse{}, err
	}
	return ReorderResponse{
		Message:      fmt.Sprintf("Successfully updated order for %d blocks", updated),
		UpdatedCount: updated,
	}, nil
}

func (s *Service) applyContentInput(b *domain.ContentBlock, in ContentBlockInput, partial bool) error {
	errs := domain.FieldErrors{}
	if in.Slug != nil {
		slug := strings.TrimSpace(*in.Slug)
		if err := domain.ValidateSlug(slug); err != nil {
			errs.Add("slug", "Enter a valid slug consisting of lowercase letters, numbers or hyphens.")
		}
		b.Slug = slug
	} else if !partial {
		errs.Add("slug", "This field is required.")
	}
	if in.Title != nil {
		b.Title = errs.RequireText("title", *in.Title, 200)
	} else if !partial {
		errs.Add("title", "This field is required.")
	}
	if in.HTMLContent != nil {
		b.HTMLContent = s.sanitizeHTML(*in.HTMLContent)
	}
	if in.Order != nil {
		if *in.Order < 0 {
			errs.Add("order", "Ensure this value is greater than or equal to 0.")
		}
		b.Order = *in.Order
	}
	if in.Page != nil {
		page := errs.OptionalText("page", *in.Page, 50)
		if page == "" {
			page = domain.DefaultContentPage
		}
		b.Page = page
	}
	return errs.Err()
}

func (s *Service) sanitizeHTML(raw string) string {
	if s.sanitizer == nil {
		return html.EscapeString(raw)
	}
	return s.sanitizer.Sanitize(raw)
}

func toContentBlockView(b domain.ContentBlock) ContentBlockView {
	return ContentBlockView{
		ID:          b.ID,
		Slug:        b.Slug,
		Title:       b.Title,
		HTMLContent: b.HTMLContent,
		Order:       b.Order,
		Page:        b.Page,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
