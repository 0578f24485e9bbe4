package logger

import (
	"strings"

	"go.uber.org/zap"
)

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskDocument hides all but the trailing digits of a CPF/CNPJ.
// A CPF renders as ***.***.*89-01.
func MaskDocument(doc string) string {
	d := digitsOnly(doc)
	switch {
	case d == "":
		return ""
	case len(d) == 11:
		return "***.***.*" + d[7:9] + "-" + d[9:]
	case len(d) == 14:
		return "**.***.***/****-" + d[12:]
	case len(d) <= 4:
		return strings.Repeat("*", len(d))
	default:
		return strings.Repeat("*", len(d)-4) + d[len(d)-4:]
	}
}

// MaskID keeps the first 8 characters of a provider identifier
func MaskID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

// Document is a zap field holding a masked tax id
func Document(key, doc string) zap.Field {
	return zap.String(key, MaskDocument(doc))
}
