// Package routines implements the pairwise matching heuristics used by the
// search engine. Every routine is a pure strategy: an optional setup pass over
// the corpus and a test applied to one (corpus term, query term) pair.
package routines

import "fmt"

// Options carries the tunables of every routine. Routines read only the
// fields they understand.
type Options struct {
	// MaxEditDistance is the largest edit distance still reported as a match
	MaxEditDistance int `json:"max_edit_distance,omitempty" toml:"max_edit_distance"`

	// SubstringMinLength is the minimum length of both terms for a substring
	// match. Zero disables substring matching.
	SubstringMinLength int `json:"substring_min_length,omitempty" toml:"substring_min_length"`

	// Prefixes are user declared prefixes removed before comparing terms
	Prefixes []string `json:"prefixes,omitempty" toml:"prefixes"`

	// FindDBPrefixes enables discovery of common prefixes in the corpus
	FindDBPrefixes  bool `json:"find_db_prefixes,omitempty" toml:"find_db_prefixes"`
	PrefixLengthMin int  `json:"prefix_length_min,omitempty" toml:"prefix_length_min"`
	PrefixLengthMax int  `json:"prefix_length_max,omitempty" toml:"prefix_length_max"`
	PrefixThreshold int  `json:"prefix_threshold,omitempty" toml:"prefix_threshold"`

	// MaxAccentVariants caps the number of simplified spellings generated per
	// term. Zero means unbounded.
	MaxAccentVariants int `json:"max_accent_variants,omitempty" toml:"max_accent_variants"`
}

// Result is the outcome of a single routine test
type Result struct {
	IsMatch    bool
	Properties map[string]any
}

// Routine is a single matching heuristic
type Routine interface {
	Name() string
	Key() string
	Weight() int

	// Test compares a corpus term a against a query term b. state is the
	// value returned by Setup, or nil for routines without one.
	Test(a, b string, opts Options, state any) (Result, error)
}

// SetupRoutine is a Routine that prepares state from the whole corpus once
// before any pair is tested
type SetupRoutine interface {
	Routine
	Setup(corpus []string, queries []string, opts Options) (any, error)
}

// match is a shorthand for a property-less result
func match(ok bool) Result {
	return Result{IsMatch: ok}
}

// All returns the statically registered routines, highest weight first
func All() []Routine {
	return []Routine{
		Exact{},
		Accent{},
		Punctuation{},
		Substring{},
		Prefix{},
		EditDistance{},
	}
}

// Lookup returns the registered routine with the given key
func Lookup(key string) (Routine, bool) {
	for _, r := range All() {
		if r.Key() == key {
			return r, true
		}
	}
	return nil, false
}

// Keys returns the keys of all registered routines
func Keys() []string {
	all := All()
	keys := make([]string, len(all))
	for i, r := range all {
		keys[i] = r.Key()
	}
	return keys
}

// Validate reports the first key that names no registered routine
func Validate(keys []string) error {
	for _, k := range keys {
		if _, ok := Lookup(k); !ok {
			return fmt.Errorf("unknown search routine %q", k)
		}
	}
	return nil
}
