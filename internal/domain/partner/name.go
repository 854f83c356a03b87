package partner

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var nameFolder = cases.Lower(language.Und)

// NameKey folds a name for case-insensitive comparison. Names coming from bank
// files may be decomposed (NFD), so they are composed before lowering.
func NameKey(name string) string {
	return nameFolder.String(norm.NFC.String(strings.TrimSpace(name)))
}

// MatchesName reports whether the partner's last name equals lastName and its
// first name contains firstNamePart, ignoring case
func (p *Partner) MatchesName(lastName, firstNamePart string) bool {
	return NameKey(p.LastName) == NameKey(lastName) &&
		strings.Contains(NameKey(p.FirstName), NameKey(firstNamePart))
}
