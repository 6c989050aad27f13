package util

import (
	"regexp"
	"strings"
	"unicode"
)

// stageNameRegex matches names that are safe to use as a file name
// component on every supported platform.
var stageNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidStageName reports whether name is safe to use as the file name of
// a stage log. Stage names must start with an alphanumeric character and
// may contain only alphanumerics, dots, underscores, and hyphens.
func ValidStageName(name string) bool {
	return stageNameRegex.MatchString(name)
}

// SanitizeStageName converts an arbitrary string into a valid stage name
// by replacing unsafe runes with underscores. Returns "" if nothing
// usable remains.
func SanitizeStageName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := strings.TrimLeft(b.String(), "._-")
	if !ValidStageName(s) {
		return ""
	}
	return s
}
