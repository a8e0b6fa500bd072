package application

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

const csvTimeLayout = "2006-01-02 15:04:05"

// ExportLeadsCSV writes every lead, newest first.
func (s *Service) ExportLeadsCSV(ctx context.Context, w io.Writer) error {
	leads, err := s.leads.ListAll(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Full Name", "Email", "Phone", "Inquiry Type", "Message", "Created At"}); err != nil {
		return err
	}
	for _, l := range leads {
		if err := cw.Write([]string{
			l.ID.String(),
			l.FullName,
			l.Email,
			l.Phone,
			l.InquiryType.DisplayName(),
			l.Message,
			l.CreatedAt.UTC().Format(csvTimeLayout),
		}); err != nil {
			return fmt.Errorf("write lead row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportRFQsCSV writes every RFQ submission, newest first.
func (s *Service) ExportRFQsCSV(ctx context.Context, w io.Writer) error {
	rfqs, err := s.rfqs.ListAll(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Full Name", "Email", "Phone", "Company", "Message", "Has Attachment", "Created At"}); err != nil {
		return err
	}
	for _, r := range rfqs {
		hasAttachment := "No"
		if r.HasAttachment() {
			hasAttachment = "Yes"
		}
		if err := cw.Write([]string{
			r.ID.String(),
			r.FullName,
			r.Email,
			r.Phone,
			r.Company,
			r.Message,
			hasAttachment,
			r.CreatedAt.UTC().Format(csvTimeLayout),
		}); err != nil {
			return fmt.Errorf("write rfq row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
