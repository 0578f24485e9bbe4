// Package money parses amounts typed into the panel forms.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Parse accepts Brazilian ("1.234,56") and dotted ("1234.56") input, with
// an optional R$ prefix
func Parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	return decimal.NewFromString(s)
}
