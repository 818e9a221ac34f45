package utils

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// DefaultFilename is used when a name sanitizes down to nothing.
const DefaultFilename = "document"

// DateFormat is the display date layout for captions and documents.
const DateFormat = "02.01.2006"

var unsafeFilenameChars = regexp.MustCompile(`[^0-9A-Za-zА-Яа-я_.\-]`)

// SanitizeFilename strips everything but letters, digits, dots, dashes
// and underscores so employee names can be embedded in file names.
func SanitizeFilename(name string) string {
	if name == "" {
		return DefaultFilename
	}
	cleaned := strings.ReplaceAll(name, " ", "_")
	cleaned = unsafeFilenameChars.ReplaceAllString(cleaned, "")
	if cleaned == "" {
		return DefaultFilename
	}
	return cleaned
}

// HumanizeFilename turns a stored filename back into display form:
// underscores become spaces and run-together words are split on case
// boundaries.
func HumanizeFilename(name string) string {
	if name == "" {
		return DefaultFilename
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := strings.ReplaceAll(stem, "_", " ")
	candidate = splitCamelCase(candidate)
	candidate = strings.Join(strings.Fields(candidate), " ")
	if candidate == "" {
		candidate = stem
	}
	return candidate + ext
}

func splitCamelCase(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 && unicode.IsLower(prev) && unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// FormatDate renders a date for humans, empty for the zero value.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateFormat)
}
