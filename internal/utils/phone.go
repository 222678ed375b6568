package utils

import (
	"fmt"
	"strings"
)

// NormalizePhone canonicalizes a dialable phone number: separators are
// stripped, a single leading + is kept, and the digit count must land in the
// E.164 range.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return "", fmt.Errorf("phone number is empty")
	}

	plus := false
	if cleaned[0] == '+' {
		plus = true
		cleaned = cleaned[1:]
	}

	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("phone number contains invalid character %q", r)
		}
	}

	if len(cleaned) < 7 || len(cleaned) > 15 {
		return "", fmt.Errorf("phone number must have 7 to 15 digits")
	}

	if plus {
		return "+" + cleaned, nil
	}
	return cleaned, nil
}
