package routines

import "strings"

// Punctuation matches terms that are equal once everything but ASCII letters
// and digits is removed
type Punctuation struct{}

// Name returns the display name of the routine
func (Punctuation) Name() string { return "Remove Punctuation" }

// Key returns the routine key
func (Punctuation) Key() string { return "punctuation" }

// Weight returns the routine weight
func (Punctuation) Weight() int { return 80 }

// Test reports whether differing terms are equal without punctuation
func (Punctuation) Test(a, b string, _ Options, _ any) (Result, error) {
	return match(a != b && StripPunctuation(a) == StripPunctuation(b)), nil
}

// StripPunctuation removes every character outside [A-Za-z0-9]
func StripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return -1
	}, s)
}
