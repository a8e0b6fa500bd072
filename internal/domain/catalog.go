package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// DocumentCategory groups uploaded files. The investor category is gated behind download tokens.
type DocumentCategory string

const (
	CategoryPatent    DocumentCategory = "patent"
	CategoryDiagram   DocumentCategory = "diagram"
	CategoryInvestor  DocumentCategory = "investor"
	CategoryTechnical DocumentCategory = "technical"
	CategoryOther     DocumentCategory = "other"
)

var documentCategories = map[DocumentCategory]string{
	CategoryPatent:    "Patent",
	CategoryDiagram:   "Diagram",
	CategoryInvestor:  "Investor Document",
	CategoryTechnical: "Technical Specification",
	CategoryOther:     "Other",
}

func ParseDocumentCategory(raw string) (DocumentCategory, error) {
	c := DocumentCategory(raw)
	if _, ok := documentCategories[c]; !ok {
		return "", fmt.Errorf("%w: category %q is not a valid choice", ErrInvalidInput, raw)
	}
	return c, nil
}

func (c DocumentCategory) DisplayName() string {
	return documentCategories[c]
}

type Manufacturer struct {
	ID          uuid.UUID
	Name        string
	Description string
	Address     string
	Phone       string
	Email       string
	Website     string
	Active      bool
	CreatedAt   time.Time
}

// Document is a stored file. StorageKey addresses its bytes in the object store.
type Document struct {
	ID          uuid.UUID
	FileName    string
	StorageKey  string
	ContentType string
	SizeBytes   int64
	Category    DocumentCategory
	Description string
	CreatedAt   time.Time
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const DefaultContentPage = "home"

// ContentBlock is an editable HTML fragment addressed by slug.
type ContentBlock struct {
	ID          uuid.UUID
	Slug        string
	Title       string
	HTMLContent string
	Order       int
	Page        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func ValidateSlug(slug string) error {
	if len(slug) == 0 || len(slug) > 100 || !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: slug must be lowercase letters, digits and single hyphens", ErrInvalidInput)
	}
	return nil
}
