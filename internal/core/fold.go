package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the Unicode case folded form of s, used for case-insensitive
// search. "ПРОДУКТЫ" and "продукты" fold to the same string.
func Fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
