package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
)

const (
	investorAuditMessage    = "Requested investor documents download"
	investorDefaultName     = "Investor"
	investorRequestAccepted = "Download link sent to your email"
)

// RequestInvestorDownload issues a download token and mails the link to the requester and the admin.
// The token and the audit lead are stored before any mail is attempted. If either mail fails the
// token is deleted again and the caller gets domain.ErrDeliveryFailed; the audit lead stays.
func (s *Service) RequestInvestorDownload(ctx context.Context, req InvestorDownloadRequest) (InvestorDownloadResponse, error) {
	fieldErrs := domain.FieldErrors{}
	email := validateEmailField(fieldErrs, "email", req.Email)
	name := fieldErrs.OptionalText("name", req.Name, 255)
	if err := fieldErrs.Err(); err != nil {
		s.metrics.ObserveIssuance("invalid")
		return InvestorDownloadResponse{}, err
	}
	if ip := strings.TrimSpace(req.IPAddress); ip != "" {
		if err := s.enforceRateLimit(ctx, "investor:ip:"+ip, s.cfg.InvestorRequestQuota); err != nil {
			s.metrics.ObserveIssuance("rate_limited")
			return InvestorDownloadResponse{}, err
		}
	}

	tok, err := s.issueToken(ctx, email)
	if err != nil {
		s.metrics.ObserveIssuance("error")
		return InvestorDownloadResponse{}, err
	}

	if name == "" {
		name = investorDefaultName
	}
	if _, err := s.leads.Create(ctx, domain.Lead{
		FullName:    name,
		Email:       email,
		Message:     investorAuditMessage,
		InquiryType: domain.InquiryInvestor,
		CreatedAt:   tok.CreatedAt,
	}); err != nil {
		s.rollbackToken(ctx, tok, "audit_lead_failed")
		s.metrics.ObserveIssuance("error")
		return InvestorDownloadResponse{}, fmt.Errorf("store investor audit lead: %w", err)
	}

	downloadURL := redemptionURL(req.BaseURL, tok.Secret)
	requesterMsg, adminMsg, err := s.investorMessages(tok, downloadURL)
	if err != nil {
		s.rollbackToken(ctx, tok, "render_failed")
		s.metrics.ObserveIssuance("error")
		return InvestorDownloadResponse{}, err
	}
	for _, msg := range []ports.MailMessage{requesterMsg, adminMsg} {
		if res := s.deliver(ctx, msg); !res.OK() {
			appLogger().ErrorContext(ctx, "investor notification failed",
				"operation", "request_investor_download",
				"outcome", "failure",
				"token_id", tok.ID,
				"subject", res.Subject,
				"error", res.Err,
			)
			s.rollbackToken(ctx, tok, "delivery_failed")
			s.metrics.ObserveIssuance("delivery_failed")
			return InvestorDownloadResponse{}, res.Err
		}
	}

	s.enqueueEvent(ctx, eventTypeDownloadRequested, tok.ID.String(), map[string]any{
		"token_id":     tok.ID,
		"email":        tok.Email,
		"category":     tok.Category,
		"expires_at":   tok.ExpiresAt,
		"max_uses":     tok.UsageLimit,
		"requested_at": tok.CreatedAt,
	})
	s.metrics.ObserveIssuance("issued")
	return InvestorDownloadResponse{
		Message:   investorRequestAccepted,
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

// issueToken generates a secret and persists its digest with the configured defaults.
// A digest collision surfaces as domain.ErrIntegrity and is not retried.
func (s *Service) issueToken(ctx context.Context, email string) (domain.DownloadToken, error) {
	secret, err := s.secrets.NewSecret()
	if err != nil {
		return domain.DownloadToken{}, fmt.Errorf("generate download secret: %w", err)
	}
	now := s.nowFn()
	tok, err := s.tokens.Create(ctx, ports.CreateDownloadTokenParams{
		Email:      email,
		SecretHash: hashToken(secret),
		Category:   s.cfg.ArtifactCategoryDefault,
		ExpiresAt:  now.Add(s.cfg.DefaultTokenWindow),
		UsageLimit: s.cfg.DefaultUsageLimit,
		CreatedAt:  now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrIntegrity) {
			appLogger().ErrorContext(ctx, "download secret collision",
				"operation", "issue_download_token",
				"outcome", "failure",
				"error", err,
			)
		}
		return domain.DownloadToken{}, err
	}
	tok.Secret = secret
	return tok, nil
}

// rollbackToken is best effort; it runs detached from request cancellation.
func (s *Service) rollbackToken(ctx context.Context, tok domain.DownloadToken, reason string) {
	if err := s.tokens.Delete(context.WithoutCancel(ctx), tok.ID); err != nil {
		appLogger().ErrorContext(ctx, "download token rollback failed",
			"operation", "rollback_download_token",
			"outcome", "failure",
			"token_id", tok.ID,
			"reason", reason,
			"error", err,
		)
		return
	}
	appLogger().WarnContext(ctx, "download token rolled back",
		"operation", "rollback_download_token",
		"outcome", "success",
		"token_id", tok.ID,
		"reason", reason,
	)
}

func redemptionURL(baseURL, secret string) string {
	return strings.TrimRight(baseURL, "/") + "/api/investor/download/" + secret + "/"
}

// RedeemDownloadToken admits one download for a valid token and opens its artifact.
// Unknown secrets are domain.ErrNotFound; known but invalid tokens are domain.ErrForbidden
// and stay unchanged. A failed open after the usage increment does not refund the use.
func (s *Service) RedeemDownloadToken(ctx context.Context, secret string) (DownloadArtifact, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		s.metrics.ObserveRedemption("not_found")
		return DownloadArtifact{}, domain.ErrNotFound
	}
	tok, err := s.tokens.GetBySecretHash(ctx, hashToken(secret))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.ObserveRedemption("not_found")
		}
		return DownloadArtifact{}, err
	}

	now := s.nowFn()
	if !tok.IsValid(now) {
		s.metrics.ObserveRedemption("forbidden")
		return DownloadArtifact{}, fmt.Errorf("%w: token %s", domain.ErrForbidden, tok.State(now))
	}

	doc, err := s.documents.FirstByCategory(ctx, tok.Category)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.ObserveRedemption("no_artifact")
			return DownloadArtifact{}, domain.ErrNoArtifact
		}
		return DownloadArtifact{}, err
	}

	updated, err := s.tokens.IncrementUsage(ctx, tok.ID, now)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			s.metrics.ObserveRedemption("forbidden")
		}
		return DownloadArtifact{}, err
	}

	body, err := s.objects.Open(ctx, doc.StorageKey)
	if err != nil {
		appLogger().ErrorContext(ctx, "gated artifact unreadable after usage was recorded",
			"operation", "redeem_download_token",
			"outcome", "failure",
			"token_id", tok.ID,
			"document_id", doc.ID,
			"usage_count", updated.UsageCount,
			"error", err,
		)
		s.metrics.ObserveRedemption("artifact_error")
		return DownloadArtifact{}, fmt.Errorf("%w: %v", domain.ErrArtifactUnavailable, err)
	}

	s.enqueueEvent(ctx, eventTypeDownloadRedeemed, tok.ID.String(), map[string]any{
		"token_id":    tok.ID,
		"document_id": doc.ID,
		"usage_count": updated.UsageCount,
		"usage_limit": updated.UsageLimit,
		"redeemed_at": now,
	})
	s.metrics.ObserveRedemption("served")
	return DownloadArtifact{
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Size:        doc.SizeBytes,
		Body:        body,
		UsageCount:  updated.UsageCount,
		UsageLimit:  updated.UsageLimit,
	}, nil
}

// InspectDownloadToken reports a token's state without touching its counters.
func (s *Service) InspectDownloadToken(ctx context.Context, secret string) (TokenStatus, error) {
	if strings.TrimSpace(secret) == "" {
		return TokenStatus{}, fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}
	tok, err := s.tokens.GetBySecretHash(ctx, hashToken(secret))
	if err != nil {
		return TokenStatus{}, err
	}
	return s.toTokenStatus(tok), nil
}

func (s *Service) ListDownloadTokens(ctx context.Context, page, size int) (PageResult[TokenStatus], error) {
	bounds, page, size := pageBounds(page, size)
	items, total, err := s.tokens.List(ctx, bounds)
	if err != nil {
		return PageResult[TokenStatus]{}, err
	}
	out := make([]TokenStatus, 0, len(items))
	for _, it := range items {
		out = append(out, s.toTokenStatus(it))
	}
	return newPageResult(out, total, page, size), nil
}

func (s *Service) toTokenStatus(tok domain.DownloadToken) TokenStatus {
	return TokenStatus{
		ID:            tok.ID,
		Email:         tok.Email,
		Category:      string(tok.Category),
		State:         tok.State(s.nowFn()),
		UsageCount:    tok.UsageCount,
		UsageLimit:    tok.UsageLimit,
		RemainingUses: tok.RemainingUses(),
		ExpiresAt:     tok.ExpiresAt,
		CreatedAt:     tok.CreatedAt,
	}
}
