package facematch

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NameKey returns the comparison key for a person name: NFC-normalized, trimmed,
// inner whitespace collapsed and Unicode case-folded ("ALICE", " alice " -> "alice").
func NameKey(name string) string {
	name = norm.NFC.String(name)
	name = strings.Join(strings.Fields(name), " ")
	return cases.Fold().String(name)
}

// CleanName trims and collapses whitespace in a display name without changing its case.
func CleanName(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}
