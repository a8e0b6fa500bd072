package application_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/nodrystarts/site-backend/internal/application"
	"github.com/nodrystarts/site-backend/internal/application/apptest"
	"github.com/nodrystarts/site-backend/internal/domain"
)

func validLead() application.LeadRequest {
	return application.LeadRequest{
		FullName:    "Sam Grower",
		Email:       "sam@example.com",
		Message:     "Interested in a pilot.",
		InquiryType: "manufacturer",
		IPAddress:   "192.0.2.10",
	}
}

func TestSubmitLeadStoresNotifiesAndEmitsEvent(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	view, err := f.Service.SubmitLead(context.Background(), validLead(), "")
	if err != nil {
		t.Fatalf("submit lead failed: %v", err)
	}
	if view.InquiryTypeDisplay != "Manufacturer Application" {
		t.Fatalf("unexpected display name %q", view.InquiryTypeDisplay)
	}
	sent := f.Mailer.Sent()
	if len(sent) != 1 || sent[0].To[0] != "info@nodrystarts.test" {
		t.Fatalf("expected inquiry mail to info inbox, got %+v", sent)
	}
	if types := f.Outbox.EventTypes(); len(types) != 1 || types[0] != "lead.created" {
		t.Fatalf("unexpected events %v", types)
	}
}

func TestSubmitLeadKeepsLeadWhenNotificationFails(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	f.Mailer.FailFor = apptest.FailRecipient("info@nodrystarts.test")

	if _, err := f.Service.SubmitLead(context.Background(), validLead(), ""); err != nil {
		t.Fatalf("notification failure must not fail the submission: %v", err)
	}
	if n := len(f.Leads.All()); n != 1 {
		t.Fatalf("expected stored lead, got %d", n)
	}
	if f.Metrics.Count("lead:notify_failed") != 1 {
		t.Fatalf("expected notify_failed outcome")
	}
}

func TestSubmitLeadDefaultsInquiryTypeAndRejectsUnknown(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	req := validLead()
	req.InquiryType = ""
	view, err := f.Service.SubmitLead(context.Background(), req, "")
	if err != nil {
		t.Fatalf("submit lead failed: %v", err)
	}
	if view.InquiryType != string(domain.InquiryContact) {
		t.Fatalf("expected default contact type, got %q", view.InquiryType)
	}

	req.InquiryType = "spam"
	req.FullName = ""
	_, err = f.Service.SubmitLead(context.Background(), req, "")
	var fields domain.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected field errors, got %v", err)
	}
	if len(fields["inquiry_type"]) == 0 || len(fields["full_name"]) == 0 {
		t.Fatalf("unexpected field errors %v", fields)
	}
}

func TestSubmitLeadIdempotentReplay(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	first, err := f.Service.SubmitLead(context.Background(), validLead(), "idem-lead-1")
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	second, err := f.Service.SubmitLead(context.Background(), validLead(), "idem-lead-1")
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("replay returned a different lead: %s vs %s", first.ID, second.ID)
	}
	if n := len(f.Leads.All()); n != 1 {
		t.Fatalf("replay stored a duplicate, have %d leads", n)
	}

	changed := validLead()
	changed.Message = "Different body"
	if _, err := f.Service.SubmitLead(context.Background(), changed, "idem-lead-1"); !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestSubmitLeadRetryAfterStoreFailureSucceeds(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	f.Leads.CreateErr = errors.New("db down")
	if _, err := f.Service.SubmitLead(context.Background(), validLead(), "idem-lead-retry"); err == nil {
		t.Fatalf("expected store failure")
	}

	f.Leads.CreateErr = nil
	view, err := f.Service.SubmitLead(context.Background(), validLead(), "idem-lead-retry")
	if err != nil {
		t.Fatalf("retry with the same key failed: %v", err)
	}
	if n := len(f.Leads.All()); n != 1 {
		t.Fatalf("expected one stored lead, have %d", n)
	}

	replay, err := f.Service.SubmitLead(context.Background(), validLead(), "idem-lead-retry")
	if err != nil || replay.ID != view.ID {
		t.Fatalf("completed key should replay %s, got %s (%v)", view.ID, replay.ID, err)
	}
}

func TestListLeadsFiltersByInquiryType(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	for _, kind := range []string{"contact", "manufacturer", "manufacturer"} {
		req := validLead()
		req.InquiryType = kind
		if _, err := f.Service.SubmitLead(context.Background(), req, ""); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	page, err := f.Service.ListLeads(context.Background(), application.LeadQuery{InquiryType: "manufacturer"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Count != 2 || page.NextPage != nil {
		t.Fatalf("unexpected page %+v", page)
	}
	if _, err := f.Service.ListLeads(context.Background(), application.LeadQuery{InquiryType: "bogus"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown filter, got %v", err)
	}
}

func TestExportLeadsCSV(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	req := validLead()
	req.Message = "line one,\nline \"two\""
	if _, err := f.Service.SubmitLead(context.Background(), req, ""); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	var buf bytes.Buffer
	if err := f.Service.ExportLeadsCSV(context.Background(), &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid csv: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "ID" || rows[1][5] != req.Message {
		t.Fatalf("unexpected rows %q", rows)
	}
}

func TestExportLeadsCSVUsesInquiryDisplayName(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	req := validLead()
	req.InquiryType = "rfq"
	if _, err := f.Service.SubmitLead(context.Background(), req, ""); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	var buf bytes.Buffer
	if err := f.Service.ExportLeadsCSV(context.Background(), &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid csv: %v", err)
	}
	if len(rows) != 2 || rows[1][4] != "RFQ Submission" {
		t.Fatalf("unexpected rows %q", rows)
	}
}

func TestSubmitRFQStoresAttachment(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	view, err := f.Service.SubmitRFQ(context.Background(), application.RFQRequest{
		FullName: "Pat Buyer",
		Email:    "pat@example.com",
		Phone:    "+1 555 0100",
		Company:  "Acme Farms",
		Message:  "Need 40 units.",
		Attachment: &application.Upload{
			FileName:    `C:\specs\site plan (v2).pdf`,
			ContentType: "application/pdf",
			Size:        4,
			Body:        strings.NewReader("spec"),
		},
	}, "")
	if err != nil {
		t.Fatalf("submit rfq failed: %v", err)
	}
	if !view.HasAttachment || view.AttachmentName != "site plan (v2).pdf" {
		t.Fatalf("unexpected view %+v", view)
	}

	stored, err := f.Service.GetRFQ(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("get rfq failed: %v", err)
	}
	if !strings.HasPrefix(stored.AttachmentURL, "http://files.test/media/rfq_attachments/2025/03/") ||
		!strings.HasSuffix(stored.AttachmentURL, "-site_plan__v2_.pdf") {
		t.Fatalf("unexpected attachment url %q", stored.AttachmentURL)
	}
	if len(f.Mailer.Sent()) != 1 {
		t.Fatalf("expected one sales notification")
	}

	if err := f.Service.DeleteRFQ(context.Background(), view.ID); err != nil {
		t.Fatalf("delete rfq failed: %v", err)
	}
	key := strings.TrimPrefix(stored.AttachmentURL, "http://files.test/media/")
	if f.Objects.Has(key) {
		t.Fatalf("attachment should be removed with the rfq")
	}
}

func TestSubmitRFQRejectsOversizedAttachment(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	_, err := f.Service.SubmitRFQ(context.Background(), application.RFQRequest{
		FullName:   "Pat Buyer",
		Email:      "pat@example.com",
		Phone:      "555",
		Message:    "Quote please",
		Attachment: &application.Upload{FileName: "big.zip", Size: 10<<20 + 1, Body: strings.NewReader("")},
	}, "")
	var fields domain.FieldErrors
	if !errors.As(err, &fields) || len(fields["attachment"]) == 0 {
		t.Fatalf("expected attachment field error, got %v", err)
	}
}

func TestSubmitRFQCleansUpAttachmentWhenStoreFails(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	f.RFQs.CreateErr = errors.New("db down")
	_, err := f.Service.SubmitRFQ(context.Background(), application.RFQRequest{
		FullName:   "Pat Buyer",
		Email:      "pat@example.com",
		Phone:      "555",
		Message:    "Quote please",
		Attachment: &application.Upload{FileName: "a.pdf", Size: 1, Body: strings.NewReader("a")},
	}, "")
	if err == nil {
		t.Fatalf("expected store failure")
	}
	if n := f.Objects.Count(); n != 0 {
		t.Fatalf("expected orphan attachment removed, %d objects remain", n)
	}
}

func TestSubmitRFQRetryAfterStoreFailureSucceeds(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	req := application.RFQRequest{
		FullName: "Pat Buyer",
		Email:    "pat@example.com",
		Phone:    "555",
		Message:  "Quote please",
	}
	f.RFQs.CreateErr = errors.New("db down")
	if _, err := f.Service.SubmitRFQ(context.Background(), req, "idem-rfq-retry"); err == nil {
		t.Fatalf("expected store failure")
	}

	f.RFQs.CreateErr = nil
	if _, err := f.Service.SubmitRFQ(context.Background(), req, "idem-rfq-retry"); err != nil {
		t.Fatalf("retry with the same key failed: %v", err)
	}
	page, err := f.Service.ListRFQs(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("list rfqs: %v", err)
	}
	if page.Count != 1 {
		t.Fatalf("expected one stored rfq, have %d", page.Count)
	}
}
