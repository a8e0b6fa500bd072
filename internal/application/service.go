package application

import (
	"time"

	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
)

// Quota is a per-key request budget over a window.
type Quota struct {
	Limit  int
	Window time.Duration
}

// Config is the explicit configuration handed to the service at construction.
// Zero values fall back to the site defaults in withDefaults.
type Config struct {
	// AdminEmail receives investor-request and RFQ notifications.
	AdminEmail               string
	InquiryNotificationEmail string
	RFQNotificationEmail     string

	DefaultTokenWindow      time.Duration
	DefaultUsageLimit       int
	ArtifactCategoryDefault domain.DocumentCategory

	AccessTokenTTL       time.Duration
	SessionTTL           time.Duration
	SessionAbsoluteTTL   time.Duration
	FailedLoginThreshold int
	LockoutDuration      time.Duration

	LeadQuota            Quota
	RFQQuota             Quota
	InvestorRequestQuota Quota

	MaxAttachmentBytes int64
	IdempotencyTTL     time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultTokenWindow <= 0 {
		c.DefaultTokenWindow = domain.DefaultTokenWindow
	}
	if c.DefaultUsageLimit <= 0 {
		c.DefaultUsageLimit = domain.DefaultUsageLimit
	}
	if c.ArtifactCategoryDefault == "" {
		c.ArtifactCategoryDefault = domain.CategoryInvestor
	}
	if c.InquiryNotificationEmail == "" {
		c.InquiryNotificationEmail = c.AdminEmail
	}
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = time.Hour
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.SessionAbsoluteTTL <= 0 {
		c.SessionAbsoluteTTL = 7 * 24 * time.Hour
	}
	if c.FailedLoginThreshold <= 0 {
		c.FailedLoginThreshold = 5
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = 30 * time.Minute
	}
	if c.MaxAttachmentBytes <= 0 {
		c.MaxAttachmentBytes = 10 << 20
	}
	if c.IdempotencyTTL <= 0 {
		c.IdempotencyTTL = 24 * time.Hour
	}
	return c
}

type Service struct {
	cfg         Config
	tokens      ports.DownloadTokenRepository
	leads       ports.LeadRepository
	rfqs        ports.RFQRepository
	makers      ports.ManufacturerRepository
	documents   ports.DocumentRepository
	blocks      ports.ContentBlockRepository
	admins      ports.AdminRepository
	sessions    ports.SessionRepository
	outbox      ports.OutboxRepository
	idempotency ports.IdempotencyRepository
	limiter     ports.RateLimiter
	lockouts    ports.LockoutStore
	revocations ports.SessionRevocationStore
	mailer      ports.Mailer
	objects     ports.ObjectStore
	sanitizer   ports.HTMLSanitizer
	secrets     ports.SecretGenerator
	hasher      ports.PasswordHasher
	tokenSigner ports.TokenSigner
	metrics     ports.Metrics
	nowFn       func() time.Time
}

type Dependencies struct {
	Config       Config
	Tokens       ports.DownloadTokenRepository
	Leads        ports.LeadRepository
	RFQs         ports.RFQRepository
	Manufacturer ports.ManufacturerRepository
	Documents    ports.DocumentRepository
	Blocks       ports.ContentBlockRepository
	Admins       ports.AdminRepository
	Sessions     ports.SessionRepository
	Outbox       ports.OutboxRepository
	Idempotency  ports.IdempotencyRepository
	RateLimiter  ports.RateLimiter
	Lockouts     ports.LockoutStore
	Revocations  ports.SessionRevocationStore
	Mailer       ports.Mailer
	Objects      ports.ObjectStore
	Sanitizer    ports.HTMLSanitizer
	Secrets      ports.SecretGenerator
	Hasher       ports.PasswordHasher
	TokenSigner  ports.TokenSigner
	Metrics      ports.Metrics
	// Clock is optional; it defaults to the UTC wall clock.
	Clock func() time.Time
}

func NewService(deps Dependencies) *Service {
	nowFn := deps.Clock
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Service{
		cfg:         deps.Config.withDefaults(),
		tokens:      deps.Tokens,
		leads:       deps.Leads,
		rfqs:        deps.RFQs,
		makers:      deps.Manufacturer,
		documents:   deps.Documents,
		blocks:      deps.Blocks,
		admins:      deps.Admins,
		sessions:    deps.Sessions,
		outbox:      deps.Outbox,
		idempotency: deps.Idempotency,
		limiter:     deps.RateLimiter,
		lockouts:    deps.Lockouts,
		revocations: deps.Revocations,
		mailer:      deps.Mailer,
		objects:     deps.Objects,
		sanitizer:   deps.Sanitizer,
		secrets:     deps.Secrets,
		hasher:      deps.Hasher,
		tokenSigner: deps.TokenSigner,
		metrics:     metrics,
		nowFn:       nowFn,
	}
}

// Config returns the effective configuration after defaults were applied.
func (s *Service) Config() Config {
	return s.cfg
}
