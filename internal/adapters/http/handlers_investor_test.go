package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttachmentDisposition(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"deck.pdf":        `attachment; filename="deck.pdf"`,
		"q1 report.pdf":   `attachment; filename="q1 report.pdf"`,
		`say "hi".pdf`:    `attachment; filename="say \"hi\".pdf"`,
		"résumé.pdf":      `attachment; filename="r_sum_.pdf"; filename*=utf-8''r%C3%A9sum%C3%A9.pdf`,
		"line\nbreak.pdf": `attachment; filename="line_break.pdf"`,
	}
	for name, want := range cases {
		assert.Equal(t, want, attachmentDisposition(name), name)
	}
}
