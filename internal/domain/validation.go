package domain

import (
	"fmt"
	"sort"
	"strings"
)

// FieldErrors collects per-field validation messages. It unwraps to ErrInvalidInput.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(f[field], "; ")))
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

func (f FieldErrors) Unwrap() error { return ErrInvalidInput }

// Err returns nil when nothing was collected.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

// RequireText trims value and records a message when it is empty or longer than maxLen.
func (f FieldErrors) RequireText(field, value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	switch {
	case trimmed == "":
		f.Add(field, "This field is required.")
	case maxLen > 0 && len(trimmed) > maxLen:
		f.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxLen))
	}
	return trimmed
}

// OptionalText trims value and only enforces the length bound.
func (f FieldErrors) OptionalText(field, value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	if maxLen > 0 && len(trimmed) > maxLen {
		f.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxLen))
	}
	return trimmed
}
