package routines

import "github.com/hbollon/go-edlib"

// Distance returns the Levenshtein edit distance between a and b, counting
// unit cost insertions, deletions and substitutions of runes
func Distance(a, b string) int {
	return edlib.LevenshteinDistance(a, b)
}
