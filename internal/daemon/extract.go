package daemon

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrUnsupportedContent marks uploads that are not text.
	ErrUnsupportedContent = errors.New("document is not UTF-8 text")
	// ErrEmptyDocument marks uploads with no readable text.
	ErrEmptyDocument = errors.New("document has no text")
)

// ExtractText turns uploaded bytes into the study text the generator reads:
// NFC-normalized, LF line endings, control characters removed, trailing
// spaces trimmed, and runs of blank lines collapsed to one.
func ExtractText(raw string) (string, error) {
	if !utf8.ValidString(raw) || strings.ContainsRune(raw, 0) {
		return "", ErrUnsupportedContent
	}
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	raw = norm.NFC.String(raw)

	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRightFunc(strings.Map(dropControl, line), unicode.IsSpace)
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	text := strings.TrimSpace(strings.Join(out, "\n"))
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func dropControl(r rune) rune {
	if r == '\t' || !unicode.IsControl(r) {
		return r
	}
	return -1
}
