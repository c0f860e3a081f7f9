package flashcards

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTitle derives a set title from the source document's title.
func DefaultTitle(documentTitle string) string {
	name := displayName(documentTitle)
	if name == "" {
		return UntitledSet
	}
	return name + " Flashcards"
}

// DefaultQuizTitle derives a quiz title from the source document's title.
func DefaultQuizTitle(documentTitle string) string {
	name := displayName(documentTitle)
	if name == "" {
		return "Untitled Quiz"
	}
	return name + " Quiz"
}

// displayName drops a short file extension and title-cases the words.
func displayName(documentTitle string) string {
	name := strings.TrimSpace(documentTitle)
	if ext := strings.LastIndex(name, "."); ext > 0 && len(name)-ext <= 5 {
		name = name[:ext]
	}
	name = strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}), " ")
	if name == "" {
		return ""
	}
	return cases.Title(language.English).String(name)
}
