package postgres

import (
	"time"

	"github.com/google/uuid"
)

type downloadTokenModel struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string    `gorm:"column:email"`
	SecretHash    string    `gorm:"column:secret_hash"`
	Category      string    `gorm:"column:document_category"`
	ExpiresAt     time.Time `gorm:"column:expires_at"`
	DownloadCount int       `gorm:"column:download_count"`
	MaxDownloads  int       `gorm:"column:max_downloads"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (downloadTokenModel) TableName() string { return "investor_download_tokens" }

type leadModel struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FullName    string    `gorm:"column:full_name"`
	Email       string    `gorm:"column:email"`
	Phone       *string   `gorm:"column:phone"`
	Message     string    `gorm:"column:message"`
	InquiryType string    `gorm:"column:inquiry_type"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (leadModel) TableName() string { return "leads" }

type rfqModel struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FullName       string    `gorm:"column:full_name"`
	Email          string    `gorm:"column:email"`
	Phone          string    `gorm:"column:phone"`
	Company        *string   `gorm:"column:company"`
	Message        string    `gorm:"column:message"`
	AttachmentKey  *string   `gorm:"column:attachment_key"`
	AttachmentName *string   `gorm:"column:attachment_name"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (rfqModel) TableName() string { return "rfq_submissions" }

type manufacturerModel struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name"`
	Description string    `gorm:"column:description"`
	Address     string    `gorm:"column:address"`
	Phone       string    `gorm:"column:phone"`
	Email       string    `gorm:"column:email"`
	Website     *string   `gorm:"column:website"`
	Active      bool      `gorm:"column:active"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (manufacturerModel) TableName() string { return "manufacturers" }

type documentModel struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FileName    string    `gorm:"column:file_name"`
	StorageKey  string    `gorm:"column:storage_key"`
	ContentType string    `gorm:"column:content_type"`
	SizeBytes   int64     `gorm:"column:size_bytes"`
	Category    string    `gorm:"column:category"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (documentModel) TableName() string { return "documents" }

type contentBlockModel struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug         string    `gorm:"column:slug"`
	Title        string    `gorm:"column:title"`
	HTMLContent  string    `gorm:"column:html_content"`
	DisplayOrder int       `gorm:"column:display_order"`
	Page         string    `gorm:"column:page"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (contentBlockModel) TableName() string { return "content_blocks" }

type adminUserModel struct {
	AdminID      uuid.UUID `gorm:"column:admin_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"column:email"`
	PasswordHash string    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (adminUserModel) TableName() string { return "admin_users" }

type adminSessionModel struct {
	SessionID      uuid.UUID  `gorm:"column:session_id;type:uuid;default:gen_random_uuid();primaryKey"`
	AdminID        uuid.UUID  `gorm:"column:admin_id"`
	IPAddress      *string    `gorm:"column:ip_address"`
	UserAgent      string     `gorm:"column:user_agent"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	LastActivityAt time.Time  `gorm:"column:last_activity_at"`
	ExpiresAt      time.Time  `gorm:"column:expires_at"`
	RevokedAt      *time.Time `gorm:"column:revoked_at"`
	RefreshHash    string     `gorm:"column:refresh_hash"`
}

func (adminSessionModel) TableName() string { return "admin_sessions" }

type outboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (outboxModel) TableName() string { return "site_outbox" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body;type:jsonb"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (idempotencyModel) TableName() string { return "site_idempotency" }
