package mail

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nodrystarts/site-backend/internal/ports"
)

func TestBuildMessageMultipartAlternative(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	raw, err := buildMessage(`"No Dry Starts" <noreply@nodrystarts.com>`, ports.MailMessage{
		To:       []string{"investor@example.com"},
		Subject:  "Your No Dry Starts® Investor Documents",
		TextBody: "line one\nline two",
		HTMLBody: "<p>hello</p>",
	}, at)
	if err != nil {
		t.Fatalf("buildMessage() error = %v", err)
	}
	out := string(raw)
	for _, want := range []string{
		"To: investor@example.com\r\n",
		"MIME-Version: 1.0\r\n",
		"multipart/alternative; boundary=",
		`text/plain; charset="utf-8"`,
		`text/html; charset="utf-8"`,
		"line one\r\nline two",
		"@nodrystarts.com>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("message missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Subject: Your No Dry Starts®") {
		t.Fatal("non-ASCII subject must be encoded")
	}
}

func TestBuildMessagePlainTextOnly(t *testing.T) {
	t.Parallel()

	raw, err := buildMessage("noreply@example.com", ports.MailMessage{
		To:       []string{"a@example.com", "b@example.com"},
		Subject:  "New RFQ Submission",
		TextBody: "body",
	}, time.Now())
	if err != nil {
		t.Fatalf("buildMessage() error = %v", err)
	}
	out := string(raw)
	if strings.Contains(out, "multipart") {
		t.Fatal("plain message should not be multipart")
	}
	if !strings.Contains(out, "To: a@example.com, b@example.com\r\n") {
		t.Fatalf("recipients not joined: %s", out)
	}
}

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewSMTPMailer(SMTPConfig{FromAddress: "x@example.com"}); err == nil {
		t.Fatal("expected host error")
	}
	if _, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", FromAddress: "not-an-address"}); err == nil {
		t.Fatal("expected from address error")
	}
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", FromAddress: "x@example.com"})
	if err != nil {
		t.Fatalf("NewSMTPMailer() error = %v", err)
	}
	if err := m.Send(context.Background(), ports.MailMessage{}); err == nil {
		t.Fatal("expected error without recipients")
	}
}
