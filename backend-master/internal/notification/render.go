package notification

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)
	leftover    = regexp.MustCompile(`\{\{[^{}]*\}\}`)

	blockBreak = regexp.MustCompile(`(?i)<\s*(br\s*/?|/p|/div|/h[1-6]|/li|/tr)\s*>`)
	anyTag     = regexp.MustCompile(`(?s)<[^>]*>`)
	styleBlock = regexp.MustCompile(`(?is)<(style|script|head)[^>]*>.*?</(style|script|head)>`)
	spaces     = regexp.MustCompile(`[ \t\f\v\r]+`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// Vars are the values substituted into a template
type Vars map[string]any

// Template is the editable part of an e-mail
type Template struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// Rendered is a ready to send e-mail body
type Rendered struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Render substitutes {{key}} and {{ key }} placeholders. Subject and HTML
// values are HTML-escaped; unknown placeholders are removed. Without an
// explicit text body, the text part is derived from the rendered HTML.
func Render(tpl Template, vars Vars) Rendered {
	out := Rendered{
		Subject: substitute(tpl.Subject, vars, true),
		HTML:    substitute(tpl.HTMLBody, vars, true),
	}
	if strings.TrimSpace(tpl.TextBody) != "" {
		out.Text = substitute(tpl.TextBody, vars, false)
	} else {
		out.Text = HTMLToText(out.HTML)
	}
	return out
}

func substitute(s string, vars Vars, escape bool) string {
	if s == "" {
		return ""
	}
	s = placeholder.ReplaceAllStringFunc(s, func(tok string) string {
		key := placeholder.FindStringSubmatch(tok)[1]
		v, ok := vars[key]
		if !ok {
			return tok
		}
		str := stringify(v)
		if escape {
			str = html.EscapeString(str)
		}
		return str
	})
	return leftover.ReplaceAllString(s, "")
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case decimal.Decimal:
		return t.StringFixed(2)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// HTMLToText strips markup, keeping line breaks for block elements
func HTMLToText(s string) string {
	s = styleBlock.ReplaceAllString(s, "")
	s = blockBreak.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = spaces.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
