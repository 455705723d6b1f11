package routines

import (
	"strings"
	"unicode/utf8"
)

// Substring matches terms where one contains the other
type Substring struct{}

// Name returns the display name of the routine
func (Substring) Name() string { return "Substring Match" }

// Key returns the routine key
func (Substring) Key() string { return "substring" }

// Weight returns the routine weight
func (Substring) Weight() int { return 60 }

// Test reports whether one differing term contains the other and both reach
// the configured minimum length. Without a minimum it never matches.
func (Substring) Test(a, b string, opts Options, _ any) (Result, error) {
	minLen := opts.SubstringMinLength
	if minLen <= 0 || a == b {
		return match(false), nil
	}
	if utf8.RuneCountInString(a) < minLen || utf8.RuneCountInString(b) < minLen {
		return match(false), nil
	}
	return match(strings.Contains(a, b) || strings.Contains(b, a)), nil
}
