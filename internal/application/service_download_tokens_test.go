package application_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nodrystarts/site-backend/internal/application"
	"github.com/nodrystarts/site-backend/internal/application/apptest"
	"github.com/nodrystarts/site-backend/internal/domain"
)

const investorEmail = "backer@example.com"

func requestDownload(t *testing.T, f *apptest.Fixture) string {
	t.Helper()
	if _, err := f.Service.RequestInvestorDownload(context.Background(), application.InvestorDownloadRequest{
		Email:     investorEmail,
		Name:      "Jane Backer",
		IPAddress: "203.0.113.9",
		BaseURL:   "https://nodrystarts.test",
	}); err != nil {
		t.Fatalf("request download failed: %v", err)
	}
	return lastSecret(t, f)
}

func lastSecret(t *testing.T, f *apptest.Fixture) string {
	t.Helper()
	sent := f.Mailer.Sent()
	for i := len(sent) - 1; i >= 0; i-- {
		const marker = "/api/investor/download/"
		body := sent[i].TextBody
		if idx := strings.Index(body, marker); idx >= 0 {
			rest := body[idx+len(marker):]
			return rest[:strings.Index(rest, "/")]
		}
	}
	t.Fatalf("no download link in %d sent messages", len(sent))
	return ""
}

func redeem(f *apptest.Fixture, secret string) ([]byte, error) {
	artifact, err := f.Service.RedeemDownloadToken(context.Background(), secret)
	if err != nil {
		return nil, err
	}
	defer artifact.Body.Close()
	return io.ReadAll(artifact.Body)
}

func TestInvestorDownloadIssuesTokenAndNotifiesBothParties(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	f.SeedDocument(domain.CategoryInvestor, "deck.pdf", []byte("%PDF-deck"), 0)

	resp, err := f.Service.RequestInvestorDownload(context.Background(), application.InvestorDownloadRequest{
		Email:   "  Backer@Example.com ",
		BaseURL: "https://nodrystarts.test/",
	})
	if err != nil {
		t.Fatalf("request download failed: %v", err)
	}
	if want := f.Clock.Now().Add(48 * time.Hour); !resp.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %s, want %s", resp.ExpiresAt, want)
	}

	tokens := f.Tokens.All()
	if len(tokens) != 1 {
		t.Fatalf("expected one stored token, got %d", len(tokens))
	}
	tok := tokens[0]
	if tok.Email != investorEmail || tok.UsageLimit != 3 || tok.UsageCount != 0 || tok.Category != domain.CategoryInvestor {
		t.Fatalf("unexpected token defaults: %+v", tok)
	}

	sent := f.Mailer.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected requester and admin mail, got %d", len(sent))
	}
	if sent[0].To[0] != investorEmail || sent[1].To[0] != "sales@nodrystarts.test" {
		t.Fatalf("unexpected recipients: %v / %v", sent[0].To, sent[1].To)
	}
	secret := lastSecret(t, f)
	if strings.Contains(tok.SecretHash, secret) || len(tok.SecretHash) != 64 {
		t.Fatalf("store must hold a digest, got %q", tok.SecretHash)
	}
	if !strings.Contains(sent[0].TextBody, "https://nodrystarts.test/api/investor/download/"+secret+"/") {
		t.Fatalf("requester mail lacks redemption url: %s", sent[0].TextBody)
	}

	leads := f.Leads.All()
	if len(leads) != 1 || leads[0].InquiryType != domain.InquiryInvestor || leads[0].FullName != "Investor" {
		t.Fatalf("expected investor audit lead, got %+v", leads)
	}
	if f.Metrics.Count("issuance:issued") != 1 {
		t.Fatalf("expected issued metric")
	}
}

func TestRedeemAllowsExactlyUsageLimitDownloads(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	f.SeedDocument(domain.CategoryInvestor, "deck.pdf", []byte("%PDF-deck"), 0)
	secret := requestDownload(t, f)

	for i := 1; i <= 3; i++ {
		f.Clock.Advance(time.Hour)
		body, err := redeem(f, secret)
		if err != nil {
			t.Fatalf("redemption %d failed: %v", i, err)
		}
		if string(body) != "%PDF-deck" {
			t.Fatalf("redemption %d served %q", i, body)
		}
	}
	if _, err := redeem(f, secret); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("fourth redemption: expected forbidden, got %v", err)
	}
	if got := f.Tokens.All()[0].UsageCount; got != 3 {
		t.Fatalf("usage count = %d, want 3", got)
	}

	status, err := f.Service.InspectDownloadToken(context.Background(), secret)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if status.State != domain.TokenStateExhausted || status.RemainingUses != 0 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestRedeemAfterExpiryIsForbiddenAndLeavesCounter(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	f.SeedDocument(domain.CategoryInvestor, "deck.pdf", []byte("pdf"), 0)
	secret := requestDownload(t, f)

	f.Clock.Advance(48 * time.Hour)
	if _, err := redeem(f, secret); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden at expiry instant, got %v", err)
	}
	if got := f.Tokens.All()[0].UsageCount; got != 0 {
		t.Fatalf("expired redemption changed usage count to %d", got)
	}
}

func TestRedeemUnknownSecretIsNotFound(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	f.SeedDocument(domain.CategoryInvestor, "deck.pdf", []byte("pdf"), 0)
	_ = requestDownload(t, f)

	for _, secret := range []string{"", "   ", "not-a-real-secret"} {
		if _, err := redeem(f, secret); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("secret %q: expected not found, got %v", secret, err)
		}
	}
}

func TestConcurrentRedemptionOfLastUseAdmitsOne(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	f.SeedDocument(domain.CategoryInvestor, "deck.pdf", []byte("pdf"), 0)
	secret := requestDownload(t, f)
	for i := 0; i < 2; i++ {
		if _, err := redeem(f, secret); err != nil {
			t.Fatalf("warm-up redemption failed: %v", err)
		}
	}

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		forbidden atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := redeem(f, secret)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrForbidden):
				forbidden.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if succeeded.Load() != 1 || forbidden.Load() != 15 {
		t.Fatalf("succeeded=%d forbidden=%d, want 1/15", succeeded.Load(), forbidden.Load())
	}
	if got := f.Tokens.All()[0].UsageCount; got != 3 {
		t.Fatalf("usage count = %d, want 3", got)
	}
}

func TestRequestDownloadRollsBackTokenWhenMailFails(t *testing.T) {
	t.Parallel()

	for _, failing := range []string{investorEmail, "sales@nodrystarts.test"} {
		f := apptest.New()
		f.Mailer.FailFor = apptest.FailRecipient(failing)

		_, err := f.Service.RequestInvestorDownload(context.Background(), application.InvestorDownloadRequest{
			Email:   investorEmail,
			BaseURL: "https://nodrystarts.test",
		})
		if !errors.Is(err, domain.ErrDeliveryFailed) {
			t.Fatalf("failing %s: expected delivery failure, got %v", failing, err)
		}
		if n := len(f.Tokens.All()); n != 0 {
			t.Fatalf("failing %s: expected rollback, %d tokens remain", failing, n)
		}
		if n := len(f.Leads.All()); n != 1 {
			t.Fatalf("failing %s: audit lead should remain, got %d", failing, n)
		}
		for _, ev := range f.Outbox.EventTypes() {
			if ev == "investor.download_requested" {
				t.Fatalf("failing %s: no event expected after rollback", failing)
			}
		}
	}
}

func TestRequestDownloadValidatesFields(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	_, err := f.Service.RequestInvestorDownload(context.Background(), application.InvestorDownloadRequest{
		Email: "not-an-email",
		Name:  strings.Repeat("x", 256),
	})
	var fields domain.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected field errors, got %v", err)
	}
	if len(fields["email"]) == 0 || len(fields["name"]) == 0 {
		t.Fatalf("expected email and name errors, got %v", fields)
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("field errors must unwrap to ErrInvalidInput")
	}
	if len(f.Tokens.All()) != 0 || len(f.Mailer.Sent()) != 0 {
		t.Fatalf("invalid request must not issue or mail")
	}
}

func TestRequestDownloadRateLimitedPerIP(t *testing.T) {
	t.Parallel()

	cfg := apptest.DefaultConfig()
	cfg.InvestorRequestQuota = application.Quota{Limit: 2, Window: time.Hour}
	f := apptest.NewWithConfig(cfg)

	req := application.InvestorDownloadRequest{Email: investorEmail, IPAddress: "198.51.100.7", BaseURL: "https://x.test"}
	for i := 0; i < 2; i++ {
		if _, err := f.Service.RequestInvestorDownload(context.Background(), req); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	if _, err := f.Service.RequestInvestorDownload(context.Background(), req); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate limit, got %v", err)
	}
	if n := len(f.Tokens.All()); n != 2 {
		t.Fatalf("expected 2 tokens, got %d", n)
	}
}

func TestSecretCollisionIsIntegrityError(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	f.Secrets.Queue("same-secret", "same-secret")
	req := application.InvestorDownloadRequest{Email: investorEmail, BaseURL: "https://x.test"}
	if _, err := f.Service.RequestInvestorDownload(context.Background(), req); err != nil {
		t.Fatalf("first issuance failed: %v", err)
	}
	if _, err := f.Service.RequestInvestorDownload(context.Background(), req); !errors.Is(err, domain.ErrIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
	if n := len(f.Tokens.All()); n != 1 {
		t.Fatalf("collision must not store a token, got %d", n)
	}
}

func TestRedeemWithoutArtifactLeavesTokenUnused(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	f.SeedDocument(domain.CategoryPatent, "patent.pdf", []byte("pdf"), 0)
	secret := requestDownload(t, f)

	_, err := redeem(f, secret)
	if !errors.Is(err, domain.ErrNoArtifact) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no-artifact not found, got %v", err)
	}
	if got := f.Tokens.All()[0].UsageCount; got != 0 {
		t.Fatalf("usage count = %d, want 0", got)
	}
}

func TestRedeemStorageFailureKeepsConsumedUse(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	f.SeedDocument(domain.CategoryInvestor, "deck.pdf", []byte("pdf"), 0)
	secret := requestDownload(t, f)
	f.Objects.OpenErr = errors.New("disk gone")

	if _, err := redeem(f, secret); !errors.Is(err, domain.ErrArtifactUnavailable) {
		t.Fatalf("expected artifact unavailable, got %v", err)
	}
	if got := f.Tokens.All()[0].UsageCount; got != 1 {
		t.Fatalf("usage count = %d, want 1", got)
	}
}

func TestRedeemServesOldestArtifactInCategory(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	f.SeedDocument(domain.CategoryInvestor, "newer.pdf", []byte("newer"), time.Minute)
	f.SeedDocument(domain.CategoryInvestor, "older.pdf", []byte("older"), -time.Minute)
	secret := requestDownload(t, f)

	artifact, err := f.Service.RedeemDownloadToken(context.Background(), secret)
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	defer artifact.Body.Close()
	if artifact.FileName != "older.pdf" || artifact.UsageCount != 1 || artifact.UsageLimit != 3 {
		t.Fatalf("unexpected artifact: %+v", artifact)
	}
}

func TestListDownloadTokensHidesSecrets(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	_ = requestDownload(t, f)
	f.Clock.Advance(time.Minute)
	_ = requestDownload(t, f)

	page, err := f.Service.ListDownloadTokens(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Count != 2 || len(page.Results) != 1 || page.NextPage == nil || *page.NextPage != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Results[0].State != domain.TokenStateActive || page.Results[0].RemainingUses != 3 {
		t.Fatalf("unexpected status: %+v", page.Results[0])
	}
}
