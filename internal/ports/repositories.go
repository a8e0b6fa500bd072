package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/domain"
)

// Page bounds a list query. Limit <= 0 means the adapter default.
type Page struct {
	Limit  int
	Offset int
}

// CreateDownloadTokenParams carries a freshly generated secret's digest; the raw secret never reaches storage.
type CreateDownloadTokenParams struct {
	Email      string
	SecretHash string
	Category   domain.DocumentCategory
	ExpiresAt  time.Time
	UsageLimit int
	CreatedAt  time.Time
}

// DownloadTokenRepository is the token store.
// IncrementUsage is the only writer of usage_count and must be atomic per token:
// it returns domain.ErrForbidden when the token is no longer valid at now.
type DownloadTokenRepository interface {
	Create(ctx context.Context, params CreateDownloadTokenParams) (domain.DownloadToken, error)
	GetBySecretHash(ctx context.Context, secretHash string) (domain.DownloadToken, error)
	IncrementUsage(ctx context.Context, tokenID uuid.UUID, now time.Time) (domain.DownloadToken, error)
	Delete(ctx context.Context, tokenID uuid.UUID) error
	List(ctx context.Context, page Page) ([]domain.DownloadToken, int64, error)
}

// LeadFilter narrows admin lead listings.
type LeadFilter struct {
	InquiryType domain.InquiryType
	Page        Page
}

// LeadRepository persists inquiries. CreateWithOutbox writes the lead and its event atomically.
type LeadRepository interface {
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	CreateWithOutbox(ctx context.Context, lead domain.Lead, event OutboxEvent) (domain.Lead, error)
	GetByID(ctx context.Context, leadID uuid.UUID) (domain.Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]domain.Lead, int64, error)
	ListAll(ctx context.Context) ([]domain.Lead, error)
	Delete(ctx context.Context, leadID uuid.UUID) error
}

type RFQRepository interface {
	CreateWithOutbox(ctx context.Context, rfq domain.RFQSubmission, event OutboxEvent) (domain.RFQSubmission, error)
	GetByID(ctx context.Context, rfqID uuid.UUID) (domain.RFQSubmission, error)
	List(ctx context.Context, page Page) ([]domain.RFQSubmission, int64, error)
	ListAll(ctx context.Context) ([]domain.RFQSubmission, error)
	Delete(ctx context.Context, rfqID uuid.UUID) error
}

type ManufacturerFilter struct {
	IncludeInactive bool
	Page            Page
}

type ManufacturerRepository interface {
	Create(ctx context.Context, m domain.Manufacturer) (domain.Manufacturer, error)
	Update(ctx context.Context, m domain.Manufacturer) (domain.Manufacturer, error)
	GetByID(ctx context.Context, manufacturerID uuid.UUID) (domain.Manufacturer, error)
	List(ctx context.Context, filter ManufacturerFilter) ([]domain.Manufacturer, int64, error)
	Delete(ctx context.Context, manufacturerID uuid.UUID) error
}

type DocumentFilter struct {
	Category domain.DocumentCategory
	Page     Page
}

// DocumentRepository indexes stored files. FirstByCategory orders by created_at then id
// so the gated artifact choice is deterministic.
type DocumentRepository interface {
	Create(ctx context.Context, doc domain.Document) (domain.Document, error)
	Update(ctx context.Context, doc domain.Document) (domain.Document, error)
	GetByID(ctx context.Context, documentID uuid.UUID) (domain.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]domain.Document, int64, error)
	FirstByCategory(ctx context.Context, category domain.DocumentCategory) (domain.Document, error)
	Delete(ctx context.Context, documentID uuid.UUID) error
}

// BlockOrder is one entry of a bulk reorder request.
type BlockOrder struct {
	Slug  string
	Order int
}

type ContentBlockRepository interface {
	Create(ctx context.Context, block domain.ContentBlock) (domain.ContentBlock, error)
	Update(ctx context.Context, block domain.ContentBlock) (domain.ContentBlock, error)
	GetBySlug(ctx context.Context, slug string) (domain.ContentBlock, error)
	List(ctx context.Context, page string) ([]domain.ContentBlock, error)
	Delete(ctx context.Context, slug string) error
	// Reorder applies every known slug in one transaction and reports how many rows changed.
	Reorder(ctx context.Context, orders []BlockOrder, at time.Time) (int, error)
}

type AdminRepository interface {
	Create(ctx context.Context, email, passwordHash string, createdAt time.Time) (domain.AdminUser, error)
	GetByEmail(ctx context.Context, email string) (domain.AdminUser, error)
	GetByID(ctx context.Context, adminID uuid.UUID) (domain.AdminUser, error)
	Count(ctx context.Context) (int64, error)
}

// SessionCreateParams captures request metadata stored alongside an admin session.
type SessionCreateParams struct {
	AdminID        uuid.UUID
	IPAddress      string
	UserAgent      string
	ExpiresAt      time.Time
	LastActivityAt time.Time
	RefreshHash    string
}

// SessionRepository is the source of truth for admin session revocation.
type SessionRepository interface {
	Create(ctx context.Context, params SessionCreateParams) (domain.AdminSession, error)
	GetByID(ctx context.Context, sessionID uuid.UUID) (domain.AdminSession, error)
	GetByRefreshHash(ctx context.Context, refreshHash string) (domain.AdminSession, error)
	// TouchActivity records activity and moves the idle expiry to expiresAt.
	TouchActivity(ctx context.Context, sessionID uuid.UUID, touchedAt, expiresAt time.Time) error
	RevokeByID(ctx context.Context, sessionID uuid.UUID, revokedAt time.Time) error
}

// OutboxEvent is the write-side event payload prior to storage.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls the publish-retry workflow for domain events.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}

// IdempotencyRecord tracks a previously accepted public form submission.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	Status       string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IdempotencyRepository lets clients retry a form POST without creating duplicates.
// Reserve returns domain.ErrConflict when the key is already held.
// Release drops a reservation that never completed; completed keys are left alone.
type IdempotencyRepository interface {
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
	Release(ctx context.Context, key string) error
}
