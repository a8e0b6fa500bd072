package domain

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	minAdminPasswordLength = 12
	maxAdminPasswordLength = 128
)

var weakPasswordFragments = []string{"password", "qwerty", "123456", "letmein", "nodrystarts"}

// ValidateAdminPassword enforces the password policy for back-office accounts.
func ValidateAdminPassword(password string) error {
	switch n := len(password); {
	case n < minAdminPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minAdminPasswordLength)
	case n > maxAdminPasswordLength:
		return fmt.Errorf("%w: password must be <= %d characters", ErrInvalidInput, maxAdminPasswordLength)
	}

	var classes int
	var seenUpper, seenLower, seenDigit, seenSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r) && !seenUpper:
			seenUpper = true
			classes++
		case unicode.IsLower(r) && !seenLower:
			seenLower = true
			classes++
		case unicode.IsDigit(r) && !seenDigit:
			seenDigit = true
			classes++
		case (unicode.IsPunct(r) || unicode.IsSymbol(r)) && !seenSymbol:
			seenSymbol = true
			classes++
		}
	}
	if classes < 4 {
		return fmt.Errorf("%w: password must include upper, lower, digit and symbol characters", ErrInvalidInput)
	}

	lowered := strings.ToLower(password)
	for _, fragment := range weakPasswordFragments {
		if strings.Contains(lowered, fragment) {
			return fmt.Errorf("%w: password includes weak pattern", ErrInvalidInput)
		}
	}
	return nil
}
