package tabroom

import (
	"strings"
	"unicode"
)

// NameMatches reports whether a table cell plausibly refers to the user.
// It errs towards false positives: team codes like "Smith Jo" or
// "Smith & Jackson" should still match "Jane Smith". Use it to pick a row, never
// as proof of identity.
func NameMatches(cell, userName string) bool {
	normCell := lettersOnly(cell)
	normUser := lettersOnly(userName)
	if normCell == "" || normUser == "" {
		return false
	}
	if strings.Contains(normCell, normUser) || strings.Contains(normUser, normCell) {
		return true
	}

	parts := strings.Fields(userName)
	if len(parts) < 2 {
		return strings.Contains(normCell, normUser)
	}
	first := strings.ToLower(parts[0])
	last := strings.ToLower(parts[len(parts)-1])
	rawCell := strings.ToLower(cell)

	if strings.Contains(rawCell, first) && strings.Contains(rawCell, last) {
		return true
	}

	normLast := lettersOnly(last)
	initial := lettersOnly(first)
	if normLast == "" || initial == "" {
		return false
	}
	return strings.Contains(normCell, normLast) && strings.ContainsRune(rawCell, []rune(initial)[0])
}

func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
