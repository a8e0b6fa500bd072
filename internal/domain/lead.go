package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InquiryType classifies how a lead reached the site.
type InquiryType string

const (
	InquiryContact      InquiryType = "contact"
	InquiryInvestor     InquiryType = "investor"
	InquiryManufacturer InquiryType = "manufacturer"
	InquiryRFQ          InquiryType = "rfq"
)

var inquiryDisplayNames = map[InquiryType]string{
	InquiryContact:      "General Contact",
	InquiryInvestor:     "Investor Inquiry",
	InquiryManufacturer: "Manufacturer Application",
	InquiryRFQ:          "RFQ Submission",
}

// ParseInquiryType defaults an empty value to contact.
func ParseInquiryType(raw string) (InquiryType, error) {
	if raw == "" {
		return InquiryContact, nil
	}
	t := InquiryType(raw)
	if _, ok := inquiryDisplayNames[t]; !ok {
		return "", fmt.Errorf("%w: inquiry_type %q is not a valid choice", ErrInvalidInput, raw)
	}
	return t, nil
}

func (t InquiryType) DisplayName() string {
	if name, ok := inquiryDisplayNames[t]; ok {
		return name
	}
	return string(t)
}

// Lead is a contact attempt captured from a public form or synthesized for audit.
type Lead struct {
	ID          uuid.UUID
	FullName    string
	Email       string
	Phone       string
	Message     string
	InquiryType InquiryType
	CreatedAt   time.Time
}

// RFQSubmission is a request for quote, optionally carrying an uploaded attachment.
type RFQSubmission struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	Phone          string
	Company        string
	Message        string
	AttachmentKey  string
	AttachmentName string
	CreatedAt      time.Time
}

func (r RFQSubmission) HasAttachment() bool {
	return r.AttachmentKey != ""
}
