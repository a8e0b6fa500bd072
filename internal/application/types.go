package application

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/nodrystarts/site-backend/internal/domain"
)

// PageResult is a paginated listing.
type PageResult[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	NextPage *int  `json:"next_page"`
	Results  []T   `json:"results"`
}

func newPageResult[T any](items []T, total int64, page, size int) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	out := PageResult[T]{
		Count:    total,
		Page:     page,
		PageSize: size,
		Results:  items,
	}
	if int64(page*size) < total {
		next := page + 1
		out.NextPage = &next
	}
	return out
}

type InvestorDownloadRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`

	IPAddress string `json:"-"`
	// BaseURL is the scheme and host the redemption link is built on.
	BaseURL string `json:"-"`
}

type InvestorDownloadResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DownloadArtifact is a gated document opened for streaming. The caller must close Body.
type DownloadArtifact struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
	UsageCount  int
	UsageLimit  int
}

// TokenStatus is a read-only view of a token for support staff. It never carries the secret.
type TokenStatus struct {
	ID            uuid.UUID         `json:"id"`
	Email         string            `json:"email"`
	Category      string            `json:"category"`
	State         domain.TokenState `json:"state"`
	UsageCount    int               `json:"download_count"`
	UsageLimit    int               `json:"max_downloads"`
	RemainingUses int               `json:"remaining_uses"`
	ExpiresAt     time.Time         `json:"expires_at"`
	CreatedAt     time.Time         `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type LoginResponse struct {
	Access    string    `json:"access"`
	Refresh   string    `json:"refresh"`
	SessionID uuid.UUID `json:"session_id"`
	ExpiresIn int64     `json:"expires_in"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type RefreshResponse struct {
	Access    string `json:"access"`
	ExpiresIn int64  `json:"expires_in"`
}

type LeadRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	InquiryType string `json:"inquiry_type"`

	IPAddress string `json:"-"`
}

type LeadView struct {
	ID                 uuid.UUID `json:"id"`
	FullName           string    `json:"full_name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone,omitempty"`
	Message            string    `json:"message"`
	InquiryType        string    `json:"inquiry_type"`
	InquiryTypeDisplay string    `json:"inquiry_type_display"`
	CreatedAt          time.Time `json:"created_at"`
}

type LeadQuery struct {
	InquiryType string
	Page        int
	PageSize    int
}

// Upload is a file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type RFQRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Message  string `json:"message"`

	Attachment *Upload `json:"-"`
	IPAddress  string  `json:"-"`
}

type RFQView struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Company        string    `json:"company,omitempty"`
	Message        string    `json:"message"`
	HasAttachment  bool      `json:"has_attachment"`
	AttachmentName string    `json:"attachment_name,omitempty"`
	AttachmentURL  string    `json:"attachment_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ManufacturerInput uses pointers so PATCH can leave fields untouched.
type ManufacturerInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Website     *string `json:"website"`
	Active      *bool   `json:"active"`
}

// ManufacturerSummary is the public list projection.
type ManufacturerSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Website     string    `json:"website,omitempty"`
}

type ManufacturerView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Website     string    `json:"website,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type DocumentUploadRequest struct {
	FileName    string
	Category    string
	Description string
	File        Upload
}

type DocumentInput struct {
	FileName    *string `json:"file_name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
}

type DocumentQuery struct {
	Category string
	Page     int
	PageSize int
}

type DocumentView struct {
	ID              uuid.UUID `json:"id"`
	FileName        string    `json:"file_name"`
	FileURL         string    `json:"file_url,omitempty"`
	Category        string    `json:"category"`
	CategoryDisplay string    `json:"category_display"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}

type ContentBlockInput struct {
	Slug        *string `json:"slug"`
	Title       *string `json:"title"`
	HTMLContent *string `json:"html_content"`
	Order       *int    `json:"order"`
	Page        *string `json:"page"`
}

type ContentBlockView struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	HTMLContent string    `json:"html_content"`
	Order       int       `json:"order"`
	Page        string    `json:"page"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ReorderRequest struct {
	Blocks []ReorderItem `json:"blocks"`
}

type ReorderItem struct {
	Slug  string `json:"slug"`
	Order int    `json:"order"`
}

type ReorderResponse struct {
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
}
