package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
)

// SubmitLead stores a public inquiry and notifies the inquiry inbox.
// A failed notification is logged; the lead is kept and the caller still succeeds.
func (s *Service) SubmitLead(ctx context.Context, req LeadRequest, idempotencyKey string) (LeadView, error) {
	fieldErrs := domain.FieldErrors{}
	lead := domain.Lead{
		FullName: fieldErrs.RequireText("full_name", req.FullName, 255),
		Email:    validateEmailField(fieldErrs, "email", req.Email),
		Phone:    fieldErrs.OptionalText("phone", req.Phone, 50),
		Message:  fieldErrs.RequireText("message", req.Message, 0),
	}
	inquiryType, err := domain.ParseInquiryType(strings.TrimSpace(req.InquiryType))
	if err != nil {
		fieldErrs.Add("inquiry_type", fmt.Sprintf("%q is not a valid choice.", req.InquiryType))
	}
	lead.InquiryType = inquiryType
	if err := fieldErrs.Err(); err != nil {
		return LeadView{}, err
	}

	if ip := strings.TrimSpace(req.IPAddress); ip != "" {
		if err := s.enforceRateLimit(ctx, "lead:ip:"+ip, s.cfg.LeadQuota); err != nil {
			s.metrics.ObserveSubmission("lead", "rate_limited")
			return LeadView{}, err
		}
	}

	var replay LeadView
	if replayed, err := s.reserveIdempotency(ctx, idempotencyKey, req, &replay); err != nil || replayed {
		return replay, err
	}

	lead.CreatedAt = s.nowFn()
	event, err := newOutboxEvent(eventTypeLeadCreated, lead.Email, map[string]any{
		"email":        lead.Email,
		"inquiry_type": lead.InquiryType,
		"created_at":   lead.CreatedAt,
	}, lead.CreatedAt)
	if err != nil {
		s.releaseIdempotency(ctx, idempotencyKey)
		return LeadView{}, err
	}
	stored, err := s.leads.CreateWithOutbox(ctx, lead, event)
	if err != nil {
		s.releaseIdempotency(ctx, idempotencyKey)
		s.metrics.ObserveSubmission("lead", "store_failed")
		return LeadView{}, err
	}

	view := toLeadView(stored)
	s.completeIdempotency(ctx, idempotencyKey, http.StatusCreated, view)

	msg, err := s.leadMessage(stored)
	res := DeliveryResult{Err: err}
	if err == nil {
		res = s.deliver(ctx, msg)
	}
	logSwallowedDelivery(ctx, "submit_lead", res)
	outcome := "created"
	if !res.OK() {
		outcome = "notify_failed"
	}
	s.metrics.ObserveSubmission("lead", outcome)
	return view, nil
}

func (s *Service) GetLead(ctx context.Context, leadID uuid.UUID) (LeadView, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return LeadView{}, err
	}
	return toLeadView(lead), nil
}

func (s *Service) ListLeads(ctx context.Context, q LeadQuery) (PageResult[LeadView], error) {
	bounds, page, size := pageBounds(q.Page, q.PageSize)
	filter := ports.LeadFilter{Page: bounds}
	if raw := strings.TrimSpace(q.InquiryType); raw != "" {
		t, err := domain.ParseInquiryType(raw)
		if err != nil {
			return PageResult[LeadView]{}, err
		}
		filter.InquiryType = t
	}
	items, total, err := s.leads.List(ctx, filter)
	if err != nil {
		return PageResult[LeadView]{}, err
	}
	out := make([]LeadView, 0, len(items))
	for _, it := range items {
		out = append(out, toLeadView(it))
	}
	return newPageResult(out, total, page, size), nil
}

func (s *Service) DeleteLead(ctx context.Context, leadID uuid.UUID) error {
	return s.leads.Delete(ctx, leadID)
}

func toLeadView(l domain.Lead) LeadView {
	return LeadView{
		ID:                 l.ID,
		FullName:           l.FullName,
		Email:              l.Email,
		Phone:              l.Phone,
		Message:            l.Message,
		InquiryType:        string(l.InquiryType),
		InquiryTypeDisplay: l.InquiryType.DisplayName(),
		CreatedAt:          l.CreatedAt,
	}
}

// reserveIdempotency claims key for req. When the key already completed with the same
// payload, the stored response is decoded into replay and replayed is true.
func (s *Service) reserveIdempotency(ctx context.Context, key string, req any, replay any) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" || s.idempotency == nil {
		return false, nil
	}
	requestHash := hashRequest(req)
	err := s.idempotency.Reserve(ctx, key, requestHash, s.nowFn().Add(s.cfg.IdempotencyTTL))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return false, err
	}
	existing, getErr := s.idempotency.Get(ctx, key)
	if getErr != nil || existing == nil {
		return false, fmt.Errorf("%w: key %q is in use", domain.ErrIdempotencyConflict, key)
	}
	if existing.RequestHash != requestHash || existing.Status != "COMPLETED" || len(existing.ResponseBody) == 0 {
		return false, fmt.Errorf("%w: key %q is in use", domain.ErrIdempotencyConflict, key)
	}
	if err := json.Unmarshal(existing.ResponseBody, replay); err != nil {
		return false, fmt.Errorf("decode idempotent replay: %w", err)
	}
	return true, nil
}

// releaseIdempotency frees the reservation of a submission that failed before it was stored.
func (s *Service) releaseIdempotency(ctx context.Context, key string) {
	key = strings.TrimSpace(key)
	if key == "" || s.idempotency == nil {
		return
	}
	if err := s.idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
		appLogger().WarnContext(ctx, "idempotency release failed",
			"operation", "release_idempotency",
			"outcome", "failure",
			"error", err,
		)
	}
}

func (s *Service) completeIdempotency(ctx context.Context, key string, status int, response any) {
	key = strings.TrimSpace(key)
	if key == "" || s.idempotency == nil {
		return
	}
	body, _ := json.Marshal(response)
	if err := s.idempotency.Complete(ctx, key, status, body, s.nowFn()); err != nil {
		appLogger().WarnContext(ctx, "idempotency completion failed",
			"operation", "complete_idempotency",
			"outcome", "failure",
			"error", err,
		)
	}
}
