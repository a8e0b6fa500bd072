package security

import "github.com/microcosm-cc/bluemonday"

// HTMLPolicy sanitizes admin-authored content blocks before they are stored.
type HTMLPolicy struct {
	policy *bluemonday.Policy
}

// NewHTMLPolicy allows user-generated-content markup plus class attributes for styling hooks.
func NewHTMLPolicy() *HTMLPolicy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.RequireNoFollowOnLinks(false)
	return &HTMLPolicy{policy: p}
}

func (h *HTMLPolicy) Sanitize(html string) string {
	return h.policy.Sanitize(html)
}
