package ports

import "context"

// MailMessage is one outbound email. Both bodies are sent as multipart/alternative when present.
type MailMessage struct {
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer is the mail transport collaborator. Any non-nil error is a failed delivery; it does not retry.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}
