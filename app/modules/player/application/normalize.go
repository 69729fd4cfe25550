package playerservice

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var upper = cases.Upper(language.Und)

// NormalizeName trims name, composes it to NFC and uppercases it. Round text
// goes through the same steps, so "čuk" and "Čuk" resolve to one player.
func NormalizeName(name string) string {
	return upper.String(norm.NFC.String(strings.TrimSpace(name)))
}

// validName reports why name cannot be registered, or "" when it can.
func validName(name string) string {
	if name == "" {
		return "name is empty"
	}
	if len([]rune(name)) > 64 {
		return "name is longer than 64 characters"
	}
	for _, r := range name {
		if unicode.IsSpace(r) || r == ',' {
			return "name contains whitespace or a comma"
		}
	}
	if strings.IndexFunc(name, unicode.IsLetter) < 0 {
		return "name has no letters"
	}
	return ""
}
