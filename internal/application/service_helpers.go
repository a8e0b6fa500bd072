package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func appLogger() *slog.Logger {
	return slog.Default().With(
		"module", "application",
		"layer", "application",
	)
}

// normalizeEmail canonicalizes and validates email format before persistence/comparison.
func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return trimmed, nil
}

// validateEmailField records a field error instead of failing fast, for form payloads.
func validateEmailField(errs domain.FieldErrors, field, raw string) string {
	if strings.TrimSpace(raw) == "" {
		errs.Add(field, "This field is required.")
		return ""
	}
	email, err := normalizeEmail(raw)
	if err != nil {
		errs.Add(field, "Enter a valid email address.")
		return ""
	}
	return email
}

// hashRequest computes a deterministic request fingerprint for idempotency conflict detection.
func hashRequest(req any) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// hashToken stores one-way token fingerprints instead of raw secrets.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

// pageBounds converts a 1-based page number into a store window.
func pageBounds(page, size int) (ports.Page, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return ports.Page{Limit: size, Offset: (page - 1) * size}, page, size
}

func (s *Service) enforceRateLimit(ctx context.Context, key string, quota Quota) error {
	if s.limiter == nil || quota.Limit <= 0 || quota.Window <= 0 {
		return nil
	}
	if strings.TrimSpace(key) == "" {
		return nil
	}

	allowed, err := s.limiter.Allow(ctx, key, quota.Limit, quota.Window)
	if err != nil {
		appLogger().WarnContext(ctx, "rate-limit state unavailable",
			"operation", "rate_limit",
			"outcome", "warning",
			"key", key,
			"error", err,
		)
		return nil
	}
	if !allowed {
		return domain.ErrRateLimited
	}
	return nil
}

// enqueueEvent writes an outbox record outside any transaction. Failures are logged and never reach the caller.
func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKey string, payload map[string]any) {
	if s.outbox == nil {
		return
	}
	event, err := newOutboxEvent(eventType, partitionKey, payload, s.nowFn())
	if err == nil {
		err = s.outbox.Enqueue(ctx, event)
	}
	if err != nil {
		appLogger().WarnContext(ctx, "outbox enqueue failed",
			"operation", "enqueue_event",
			"outcome", "failure",
			"event_type", eventType,
			"error", err,
		)
	}
}
