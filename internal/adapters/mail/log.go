package mail

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nodrystarts/site-backend/internal/ports"
)

// LogMailer records outbound mail in the log instead of sending it. Used when SMTP is not configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg ports.MailMessage) error {
	m.logger.InfoContext(ctx, "mail captured",
		"module", "mail",
		"layer", "adapter",
		"operation", "send_mail",
		"outcome", "success",
		"to", strings.Join(msg.To, ","),
		"subject", msg.Subject,
		"text_bytes", len(msg.TextBody),
		"html_bytes", len(msg.HTMLBody),
	)
	return nil
}
