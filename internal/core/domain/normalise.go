package domain

import (
	"strings"
	"unicode"
)

// NormaliseText applies the lossy cleaning transform used before embedding:
// whitespace and control runs collapse to a single space, every rune that is
// neither a word character nor whitespace is dropped, and the remaining spaces
// are removed. Word characters are Unicode letters, Unicode numbers and '_'.
//
// The transform is idempotent and does not preserve word boundaries.
func NormaliseText(s string) string {
	var collapsed strings.Builder
	collapsed.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if isSpaceOrControl(r) {
			if !inSpace {
				collapsed.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		collapsed.WriteRune(r)
	}

	stripped := strings.Map(func(r rune) rune {
		if isWordRune(r) || r == ' ' {
			return r
		}
		return -1
	}, collapsed.String())

	return strings.ReplaceAll(stripped, " ", "")
}

// isWordRune reports whether r is a word character.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isSpaceOrControl(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}
