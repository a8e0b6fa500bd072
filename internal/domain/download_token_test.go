package domain

import (
	"testing"
	"time"
)

func TestDownloadTokenValidity(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := DownloadToken{
		ExpiresAt:  created.Add(DefaultTokenWindow),
		UsageLimit: DefaultUsageLimit,
		CreatedAt:  created,
	}

	cases := []struct {
		name      string
		usage     int
		now       time.Time
		wantValid bool
		wantState TokenState
	}{
		{name: "fresh", usage: 0, now: created, wantValid: true, wantState: TokenStateActive},
		{name: "one use left", usage: 2, now: created.Add(time.Hour), wantValid: true, wantState: TokenStateActive},
		{name: "exhausted", usage: 3, now: created.Add(time.Hour), wantValid: false, wantState: TokenStateExhausted},
		{name: "expiry instant is already invalid", usage: 0, now: created.Add(DefaultTokenWindow), wantValid: false, wantState: TokenStateExpired},
		{name: "expired with uses left", usage: 1, now: created.Add(72 * time.Hour), wantValid: false, wantState: TokenStateExpired},
		{name: "expired and exhausted", usage: 3, now: created.Add(72 * time.Hour), wantValid: false, wantState: TokenStateExhausted},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tok := base
			tok.UsageCount = tc.usage
			if got := tok.IsValid(tc.now); got != tc.wantValid {
				t.Fatalf("IsValid() = %v, want %v", got, tc.wantValid)
			}
			if got := tok.State(tc.now); got != tc.wantState {
				t.Fatalf("State() = %q, want %q", got, tc.wantState)
			}
		})
	}
}

func TestDownloadTokenInvalidityIsAbsorbing(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := DownloadToken{ExpiresAt: created.Add(time.Hour), UsageLimit: 2, UsageCount: 2}
	for step := 0; step < 10; step++ {
		now := created.Add(time.Duration(step) * 30 * time.Minute)
		if tok.IsValid(now) {
			t.Fatalf("exhausted token became valid at step %d", step)
		}
		tok.UsageCount++
	}
	if tok.RemainingUses() != 0 {
		t.Fatalf("expected no remaining uses, got %d", tok.RemainingUses())
	}
}

func TestValidateAdminPassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		password  string
		wantError bool
	}{
		{name: "valid", password: "StrongPass123!", wantError: false},
		{name: "too short", password: "Ab1!", wantError: true},
		{name: "no symbol", password: "StrongPass1234", wantError: true},
		{name: "weak pattern", password: "Password123!", wantError: true},
		{name: "brand name", password: "NoDryStarts99!", wantError: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateAdminPassword(tc.password)
			if tc.wantError && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantError && err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
		})
	}
}

func TestParseEnums(t *testing.T) {
	t.Parallel()

	if got, err := ParseInquiryType(""); err != nil || got != InquiryContact {
		t.Fatalf("empty inquiry type should default to contact, got %q %v", got, err)
	}
	if _, err := ParseInquiryType("spam"); err == nil {
		t.Fatalf("expected unknown inquiry type to be rejected")
	}
	if InquiryRFQ.DisplayName() != "RFQ Submission" {
		t.Fatalf("unexpected display name %q", InquiryRFQ.DisplayName())
	}
	if _, err := ParseDocumentCategory("investor"); err != nil {
		t.Fatalf("investor category rejected: %v", err)
	}
	if _, err := ParseDocumentCategory("secret"); err == nil {
		t.Fatalf("expected unknown category to be rejected")
	}
	if err := ValidateSlug("hero-banner-2"); err != nil {
		t.Fatalf("valid slug rejected: %v", err)
	}
	for _, bad := range []string{"", "Hero", "a--b", "-a", "a_b"} {
		if err := ValidateSlug(bad); err == nil {
			t.Fatalf("expected slug %q to be rejected", bad)
		}
	}
}
