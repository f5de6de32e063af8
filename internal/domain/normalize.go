package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail returns the CRM key for an address: NFC normalised,
// trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(email)))
}

// NormalizeName collapses internal whitespace and NFC normalises a name.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

// NormalizeSlug lower-cases a slug and replaces runs of non [a-z0-9]
// characters with a single hyphen.
func NormalizeSlug(slug string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(norm.NFC.String(slug)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
