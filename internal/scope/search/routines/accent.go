package routines

import "golang.org/x/text/unicode/norm"

// Accent matches terms that share a spelling once special characters are
// simplified to ASCII
type Accent struct{}

// Name returns the display name of the routine
func (Accent) Name() string { return "Simplify Accents" }

// Key returns the routine key
func (Accent) Key() string { return "accent" }

// Weight returns the routine weight
func (Accent) Weight() int { return 90 }

// Test reports whether differing terms have a simplified spelling in common
func (Accent) Test(a, b string, opts Options, _ any) (Result, error) {
	if a == b {
		return match(false), nil
	}

	variants := make(map[string]struct{})
	for _, v := range AccentVariants(a, opts.MaxAccentVariants) {
		variants[v] = struct{}{}
	}
	for _, v := range AccentVariants(b, opts.MaxAccentVariants) {
		if _, ok := variants[v]; ok {
			return match(true), nil
		}
	}
	return match(false), nil
}

// AccentVariants expands term into every spelling produced by substituting
// each special character with each of its replacements. Other characters are
// kept as is. A positive limit stops alternatives from multiplying once the
// variant count would exceed it; the first replacement is used from then on.
func AccentVariants(term string, limit int) []string {
	out := []string{""}
	for _, r := range norm.NFC.String(term) {
		choices, ok := accentReplacements[r]
		if !ok {
			choices = []string{string(r)}
		}
		if limit > 0 && len(out)*len(choices) > limit {
			choices = choices[:1]
		}

		next := make([]string, 0, len(out)*len(choices))
		for _, prefix := range out {
			for _, c := range choices {
				next = append(next, prefix+c)
			}
		}
		out = next
	}
	return out
}
