package billing

import (
	"strings"
)

// FormatPhone normalizes a Brazilian phone number to +55 followed by area
// code and subscriber number. Anything that does not reduce to 10 or 11
// national digits yields "".
func FormatPhone(raw string) string {
	digits := DigitsOnly(raw)
	if strings.HasPrefix(digits, "55") && len(digits) > 11 {
		digits = digits[2:]
	}
	if len(digits) < 10 || len(digits) > 11 {
		return ""
	}
	return "+55" + digits
}

// DigitsOnly strips everything but 0-9
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
