package shared

import (
	"path/filepath"
	"strings"
)

// NormalizeTitle converts a raw source name into a human-readable title:
// underscores become spaces and surrounding whitespace is trimmed.
func NormalizeTitle(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
}

// TitleKey returns the case-insensitive comparison key for a title.
// Two titles with the same key are considered the same logical entity.
func TitleKey(s string) string {
	return strings.ToLower(NormalizeTitle(s))
}

// LabelFromFilename derives the human-normalized version label for a source
// file: the base name with its extension stripped, normalized.
func LabelFromFilename(name string) string {
	base := filepath.Base(name)
	return NormalizeTitle(strings.TrimSuffix(base, filepath.Ext(base)))
}

// RawLabel returns the source file's base name with its extension stripped,
// without normalization. Files may have been imported under either form, so
// change detection probes both.
func RawLabel(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SlugKey converts a label into a filesystem- and URL-safe key fragment.
func SlugKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(NormalizeTitle(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
