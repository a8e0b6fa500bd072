package apptest

import (
	"context"
	"html"
	"time"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/application"
	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
)

const (
	AdminEmail    = "admin@nodrystarts.test"
	AdminPassword = "Correct-Horse-9"
)

// Fixture is a Service wired to in-memory collaborators.
type Fixture struct {
	Service *application.Service
	Clock   *Clock

	Tokens        *Tokens
	Leads         *Leads
	RFQs          *RFQs
	Manufacturers *Manufacturers
	Documents     *Documents
	Blocks        *ContentBlocks
	Admins        *Admins
	Sessions      *Sessions
	Outbox        *Outbox
	Idempotency   *Idempotency
	Limiter       *Limiter
	Mailer        *Mailer
	Objects       *Objects
	Secrets       *Secrets
	Metrics       *Metrics
}

// DefaultConfig mirrors production defaults with generous quotas.
func DefaultConfig() application.Config {
	return application.Config{
		AdminEmail:               "sales@nodrystarts.test",
		InquiryNotificationEmail: "info@nodrystarts.test",
		LeadQuota:                application.Quota{Limit: 100, Window: time.Hour},
		RFQQuota:                 application.Quota{Limit: 100, Window: time.Hour},
		InvestorRequestQuota:     application.Quota{Limit: 100, Window: time.Hour},
	}
}

func New() *Fixture {
	return NewWithConfig(DefaultConfig())
}

func NewWithConfig(cfg application.Config) *Fixture {
	clock := &Clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	outbox := &Outbox{}
	f := &Fixture{
		Clock:         clock,
		Tokens:        NewTokens(),
		Leads:         &Leads{outbox: outbox},
		RFQs:          &RFQs{outbox: outbox},
		Manufacturers: &Manufacturers{items: map[uuid.UUID]domain.Manufacturer{}},
		Documents:     &Documents{items: map[uuid.UUID]domain.Document{}},
		Blocks:        &ContentBlocks{bySlug: map[string]domain.ContentBlock{}},
		Admins:        &Admins{items: map[string]domain.AdminUser{}},
		Sessions:      &Sessions{items: map[uuid.UUID]domain.AdminSession{}},
		Outbox:        outbox,
		Idempotency:   &Idempotency{records: map[string]ports.IdempotencyRecord{}},
		Limiter:       &Limiter{counts: map[string]int{}},
		Mailer:        &Mailer{},
		Objects:       &Objects{blobs: map[string][]byte{}},
		Secrets:       &Secrets{},
		Metrics:       &Metrics{counts: map[string]int{}},
	}
	f.Service = application.NewService(application.Dependencies{
		Config:       cfg,
		Tokens:       f.Tokens,
		Leads:        f.Leads,
		RFQs:         f.RFQs,
		Manufacturer: f.Manufacturers,
		Documents:    f.Documents,
		Blocks:       f.Blocks,
		Admins:       f.Admins,
		Sessions:     f.Sessions,
		Outbox:       f.Outbox,
		Idempotency:  f.Idempotency,
		RateLimiter:  f.Limiter,
		Lockouts:     &Lockouts{state: map[string]ports.LockoutState{}},
		Revocations:  &Revocations{revoked: map[uuid.UUID]bool{}},
		Mailer:       f.Mailer,
		Objects:      f.Objects,
		Sanitizer:    escaper{},
		Secrets:      f.Secrets,
		Hasher:       Hasher{},
		TokenSigner:  &Signer{tokens: map[string]ports.AuthClaims{}, clock: clock},
		Metrics:      f.Metrics,
		Clock:        clock.Now,
	})
	return f
}

// SeedDocument stores a document and its bytes, created at the fixture's current time plus offset.
func (f *Fixture) SeedDocument(category domain.DocumentCategory, fileName string, body []byte, offset time.Duration) domain.Document {
	key := "documents/" + string(category) + "/" + fileName
	_, _ = f.Objects.Put(context.Background(), key, bytesReader(body), int64(len(body)), "application/pdf")
	doc, _ := f.Documents.Create(context.Background(), domain.Document{
		ID:          uuid.New(),
		FileName:    fileName,
		StorageKey:  key,
		ContentType: "application/pdf",
		SizeBytes:   int64(len(body)),
		Category:    category,
		CreatedAt:   f.Clock.Now().Add(offset),
	})
	return doc
}

// AdminLogin bootstraps the admin account and logs it in.
func (f *Fixture) AdminLogin(ctx context.Context) (application.LoginResponse, error) {
	if _, err := f.Service.EnsureBootstrapAdmin(ctx, AdminEmail, AdminPassword); err != nil {
		return application.LoginResponse{}, err
	}
	return f.Service.Login(ctx, application.LoginRequest{Email: AdminEmail, Password: AdminPassword})
}

// AdminToken returns a live access token for the bootstrap admin.
func (f *Fixture) AdminToken(ctx context.Context) (string, error) {
	resp, err := f.AdminLogin(ctx)
	if err != nil {
		return "", err
	}
	return resp.Access, nil
}

type escaper struct{}

func (escaper) Sanitize(raw string) string { return html.EscapeString(raw) }
