package application

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
)

const brand = "No Dry Starts®"

// DeliveryResult is the outcome of one notification. Callers decide whether a failure
// aborts their operation or is only logged.
type DeliveryResult struct {
	Recipients []string
	Subject    string
	Err        error
}

func (r DeliveryResult) OK() bool { return r.Err == nil }

// deliver sends msg once. It never retries; every transport error is wrapped in domain.ErrDeliveryFailed.
func (s *Service) deliver(ctx context.Context, msg ports.MailMessage) DeliveryResult {
	msg.To = uniqueRecipients(msg.To)
	res := DeliveryResult{Recipients: msg.To, Subject: msg.Subject}
	switch {
	case s.mailer == nil:
		res.Err = fmt.Errorf("%w: mail transport not configured", domain.ErrDeliveryFailed)
	case len(msg.To) == 0:
		res.Err = fmt.Errorf("%w: no recipients", domain.ErrDeliveryFailed)
	default:
		if err := s.mailer.Send(ctx, msg); err != nil {
			res.Err = fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
		}
	}
	return res
}

// logSwallowedDelivery records a failed notification whose caller continues anyway.
func logSwallowedDelivery(ctx context.Context, operation string, res DeliveryResult) {
	if res.OK() {
		return
	}
	appLogger().WarnContext(ctx, "notification delivery failed; continuing",
		"operation", operation,
		"outcome", "failure",
		"subject", res.Subject,
		"recipient_count", len(res.Recipients),
		"error", res.Err,
	)
}

func uniqueRecipients(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, addr := range in {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}

type investorMailData struct {
	Email         string
	Secret        string
	DownloadURL   string
	ExpiresAt     string
	WindowHours   int
	RemainingUses int
}

var (
	investorRequesterText = texttemplate.Must(texttemplate.New("investor_requester_text").Parse(
		`Thank you for your interest in No Dry Starts®.

Download your investor documents here:
{{.DownloadURL}}

This link expires in {{.WindowHours}} hours ({{.ExpiresAt}}) and can be used up to {{.RemainingUses}} times.

If you did not request these documents, you can ignore this email.
`))
	investorRequesterHTML = htmltemplate.Must(htmltemplate.New("investor_requester_html").Parse(
		`<p>Thank you for your interest in No Dry Starts®.</p>
<p><a href="{{.DownloadURL}}">Download your investor documents</a></p>
<p>This link expires in {{.WindowHours}} hours ({{.ExpiresAt}}) and can be used up to {{.RemainingUses}} times.</p>
<p>If you did not request these documents, you can ignore this email.</p>
`))
	investorAdminText = texttemplate.Must(texttemplate.New("investor_admin_text").Parse(
		`A new investor document download was requested.

Email: {{.Email}}
Token: {{.Secret}}
Expires: {{.ExpiresAt}}
Download URL: {{.DownloadURL}}
Remaining uses: {{.RemainingUses}}
`))
	investorAdminHTML = htmltemplate.Must(htmltemplate.New("investor_admin_html").Parse(
		`<h2>New Investor Document Request</h2>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Token:</strong> <code>{{.Secret}}</code></p>
<p><strong>Expires:</strong> {{.ExpiresAt}}</p>
<p><strong>Download URL:</strong> <a href="{{.DownloadURL}}">{{.DownloadURL}}</a></p>
<p><strong>Remaining uses:</strong> {{.RemainingUses}}</p>
`))
)

type submissionMailData struct {
	Kind          string
	FullName      string
	Email         string
	Phone         string
	Company       string
	Message       string
	HasAttachment bool
	ShowCompany   bool
	SubmittedAt   string
}

var (
	submissionText = texttemplate.Must(texttemplate.New("submission_text").Parse(
		`New {{.Kind}} received.

Name: {{.FullName}}
Email: {{.Email}}
Phone: {{if .Phone}}{{.Phone}}{{else}}Not provided{{end}}
{{if .ShowCompany}}Company: {{if .Company}}{{.Company}}{{else}}Not provided{{end}}
Attachment: {{if .HasAttachment}}Yes{{else}}No{{end}}
{{end}}Submitted: {{.SubmittedAt}}

Message:
{{.Message}}
`))
	submissionHTML = htmltemplate.Must(htmltemplate.New("submission_html").Parse(
		`<h2>New {{.Kind}}</h2>
<p><strong>Name:</strong> {{.FullName}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{if .Phone}}{{.Phone}}{{else}}Not provided{{end}}</p>
{{if .ShowCompany}}<p><strong>Company:</strong> {{if .Company}}{{.Company}}{{else}}Not provided{{end}}</p>
<p><strong>Attachment:</strong> {{if .HasAttachment}}Yes{{else}}No{{end}}</p>
{{end}}<p><strong>Submitted:</strong> {{.SubmittedAt}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`))
)

func render(text *texttemplate.Template, html *htmltemplate.Template, data any) (string, string, error) {
	var textBuf, htmlBuf bytes.Buffer
	if err := text.Execute(&textBuf, data); err != nil {
		return "", "", err
	}
	if err := html.Execute(&htmlBuf, data); err != nil {
		return "", "", err
	}
	return textBuf.String(), htmlBuf.String(), nil
}

func formatMailTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 MST")
}

func (s *Service) investorMessages(tok domain.DownloadToken, downloadURL string) (ports.MailMessage, ports.MailMessage, error) {
	data := investorMailData{
		Email:         tok.Email,
		Secret:        tok.Secret,
		DownloadURL:   downloadURL,
		ExpiresAt:     formatMailTime(tok.ExpiresAt),
		WindowHours:   int(tok.ExpiresAt.Sub(tok.CreatedAt).Round(time.Hour).Hours()),
		RemainingUses: tok.RemainingUses(),
	}
	requesterText, requesterHTML, err := render(investorRequesterText, investorRequesterHTML, data)
	if err != nil {
		return ports.MailMessage{}, ports.MailMessage{}, fmt.Errorf("render requester mail: %w", err)
	}
	adminText, adminHTML, err := render(investorAdminText, investorAdminHTML, data)
	if err != nil {
		return ports.MailMessage{}, ports.MailMessage{}, fmt.Errorf("render admin mail: %w", err)
	}
	requester := ports.MailMessage{
		To:       []string{tok.Email},
		Subject:  "Your " + brand + " Investor Documents",
		TextBody: requesterText,
		HTMLBody: requesterHTML,
	}
	admin := ports.MailMessage{
		To:       []string{s.cfg.AdminEmail},
		Subject:  "New Investor Document Request - " + brand,
		TextBody: adminText,
		HTMLBody: adminHTML,
	}
	return requester, admin, nil
}

func (s *Service) leadMessage(lead domain.Lead) (ports.MailMessage, error) {
	text, html, err := render(submissionText, submissionHTML, submissionMailData{
		Kind:        lead.InquiryType.DisplayName() + " inquiry",
		FullName:    lead.FullName,
		Email:       lead.Email,
		Phone:       lead.Phone,
		Message:     lead.Message,
		SubmittedAt: formatMailTime(lead.CreatedAt),
	})
	if err != nil {
		return ports.MailMessage{}, fmt.Errorf("render lead mail: %w", err)
	}
	return ports.MailMessage{
		To:       []string{s.cfg.InquiryNotificationEmail},
		Subject:  fmt.Sprintf("New %s Inquiry - %s", lead.InquiryType.DisplayName(), brand),
		TextBody: text,
		HTMLBody: html,
	}, nil
}

func (s *Service) rfqMessage(rfq domain.RFQSubmission) (ports.MailMessage, error) {
	text, html, err := render(submissionText, submissionHTML, submissionMailData{
		Kind:          "RFQ submission",
		FullName:      rfq.FullName,
		Email:         rfq.Email,
		Phone:         rfq.Phone,
		Company:       rfq.Company,
		Message:       rfq.Message,
		HasAttachment: rfq.HasAttachment(),
		ShowCompany:   true,
		SubmittedAt:   formatMailTime(rfq.CreatedAt),
	})
	if err != nil {
		return ports.MailMessage{}, fmt.Errorf("render rfq mail: %w", err)
	}
	return ports.MailMessage{
		To:       []string{s.cfg.AdminEmail, s.cfg.RFQNotificationEmail},
		Subject:  "New RFQ Submission - " + brand,
		TextBody: text,
		HTMLBody: html,
	}, nil
}
