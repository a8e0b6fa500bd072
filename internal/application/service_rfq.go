package application

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/domain"
)

// SubmitRFQ stores a request for quote with its optional attachment and notifies the sales inboxes.
// Notification failures never fail the submission.
func (s *Service) SubmitRFQ(ctx context.Context, req RFQRequest, idempotencyKey string) (RFQView, error) {
	fieldErrs := domain.FieldErrors{}
	rfq := domain.RFQSubmission{
		FullName: fieldErrs.RequireText("full_name", req.FullName, 255),
		Email:    validateEmailField(fieldErrs, "email", req.Email),
		Phone:    fieldErrs.RequireText("phone", req.Phone, 50),
		Company:  fieldErrs.OptionalText("company", req.Company, 255),
		Message:  fieldErrs.RequireText("message", req.Message, 0),
	}
	if req.Attachment != nil && req.Attachment.Size > s.cfg.MaxAttachmentBytes {
		fieldErrs.Add("attachment", AttachmentTooLargeMessage(s.cfg.MaxAttachmentBytes))
	}
	if err := fieldErrs.Err(); err != nil {
		return RFQView{}, err
	}

	if ip := strings.TrimSpace(req.IPAddress); ip != "" {
		if err := s.enforceRateLimit(ctx, "rfq:ip:"+ip, s.cfg.RFQQuota); err != nil {
			s.metrics.ObserveSubmission("rfq", "rate_limited")
			return RFQView{}, err
		}
	}

	var replay RFQView
	if replayed, err := s.reserveIdempotency(ctx, idempotencyKey, req, &replay); err != nil || replayed {
		return replay, err
	}

	rfq.CreatedAt = s.nowFn()
	if req.Attachment != nil {
		key := attachmentKey(rfq.CreatedAt, req.Attachment.FileName)
		obj, err := s.objects.Put(ctx, key, req.Attachment.Body, req.Attachment.Size, req.Attachment.ContentType)
		if err != nil {
			s.releaseIdempotency(ctx, idempotencyKey)
			return RFQView{}, fmt.Errorf("store rfq attachment: %w", err)
		}
		rfq.AttachmentKey = obj.Key
		rfq.AttachmentName = path.Base(strings.ReplaceAll(req.Attachment.FileName, "\\", "/"))
	}

	event, err := newOutboxEvent(eventTypeRFQSubmitted, rfq.Email, map[string]any{
		"email":          rfq.Email,
		"company":        rfq.Company,
		"has_attachment": rfq.HasAttachment(),
		"created_at":     rfq.CreatedAt,
	}, rfq.CreatedAt)
	if err != nil {
		s.releaseIdempotency(ctx, idempotencyKey)
		return RFQView{}, err
	}
	stored, err := s.rfqs.CreateWithOutbox(ctx, rfq, event)
	if err != nil {
		if rfq.HasAttachment() {
			_ = s.objects.Delete(context.WithoutCancel(ctx), rfq.AttachmentKey)
		}
		s.releaseIdempotency(ctx, idempotencyKey)
		s.metrics.ObserveSubmission("rfq", "store_failed")
		return RFQView{}, err
	}

	view := s.toRFQView(ctx, stored, false)
	s.completeIdempotency(ctx, idempotencyKey, http.StatusCreated, view)

	msg, err := s.rfqMessage(stored)
	res := DeliveryResult{Err: err}
	if err == nil {
		res = s.deliver(ctx, msg)
	}
	logSwallowedDelivery(ctx, "submit_rfq", res)
	outcome := "created"
	if !res.OK() {
		outcome = "notify_failed"
	}
	s.metrics.ObserveSubmission("rfq", outcome)
	return view, nil
}

func (s *Service) GetRFQ(ctx context.Context, rfqID uuid.UUID) (RFQView, error) {
	rfq, err := s.rfqs.GetByID(ctx, rfqID)
	if err != nil {
		return RFQView{}, err
	}
	return s.toRFQView(ctx, rfq, true), nil
}

func (s *Service) ListRFQs(ctx context.Context, page, size int) (PageResult[RFQView], error) {
	bounds, page, size := pageBounds(page, size)
	items, total, err := s.rfqs.List(ctx, bounds)
	if err != nil {
		return PageResult[RFQView]{}, err
	}
	out := make([]RFQView, 0, len(items))
	for _, it := range items {
		out = append(out, s.toRFQView(ctx, it, true))
	}
	return newPageResult(out, total, page, size), nil
}

// DeleteRFQ removes the submission, then its attachment. A leftover object is only logged.
func (s *Service) DeleteRFQ(ctx context.Context, rfqID uuid.UUID) error {
	rfq, err := s.rfqs.GetByID(ctx, rfqID)
	if err != nil {
		return err
	}
	if err := s.rfqs.Delete(ctx, rfqID); err != nil {
		return err
	}
	if rfq.HasAttachment() {
		if err := s.objects.Delete(ctx, rfq.AttachmentKey); err != nil {
			appLogger().WarnContext(ctx, "rfq attachment cleanup failed",
				"operation", "delete_rfq",
				"outcome", "warning",
				"rfq_id", rfqID,
				"error", err,
			)
		}
	}
	return nil
}

func (s *Service) toRFQView(ctx context.Context, r domain.RFQSubmission, withURL bool) RFQView {
	view := RFQView{
		ID:             r.ID,
		FullName:       r.FullName,
		Email:          r.Email,
		Phone:          r.Phone,
		Company:        r.Company,
		Message:        r.Message,
		HasAttachment:  r.HasAttachment(),
		AttachmentName: r.AttachmentName,
		CreatedAt:      r.CreatedAt,
	}
	if withURL && r.HasAttachment() {
		if u, err := s.objects.URL(ctx, r.AttachmentKey); err == nil {
			view.AttachmentURL = u
		}
	}
	return view
}

func AttachmentTooLargeMessage(limit int64) string {
	return fmt.Sprintf("File size must not exceed %d MB.", limit>>20)
}

func attachmentKey(at time.Time, fileName string) string {
	return fmt.Sprintf("rfq_attachments/%04d/%02d/%s-%s", at.Year(), at.Month(), uuid.NewString(), safeFileName(fileName))
}

// safeFileName keeps the base name and replaces anything outside [A-Za-z0-9._-].
func safeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}
