// Package names derives human display names from email addresses and raw contact names.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var separators = strings.NewReplacer(".", " ", "_", " ")

// FromEmail derives a display name from the local part of an email address.
// Input without "@" is treated as a bare local part.
func FromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	return Title(separators.Replace(local))
}

// Title title-cases each run of letters, so a letter that follows a digit or an
// apostrophe starts a new word ("jane2doe" becomes "Jane2Doe", "o'neil" becomes "O'Neil").
func Title(s string) string {
	// cases.Caser is stateful and not safe for concurrent use
	caser := cases.Title(language.English)
	s = strings.Join(strings.Fields(s), " ")

	var b strings.Builder
	b.Grow(len(s))
	start := -1
	for i, r := range s {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			b.WriteString(caser.String(s[start:i]))
			start = -1
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		b.WriteString(caser.String(s[start:]))
	}
	return b.String()
}

// Normalize lowercases s and collapses "." "_" and whitespace runs into single spaces.
// Used to compare names and email local parts on equal footing.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(separators.Replace(s))), " ")
}
