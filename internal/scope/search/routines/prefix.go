package routines

import (
	"fmt"
	"strings"
)

// Prefix matches terms that become equal once a known prefix is removed.
// Known prefixes are the declared ones plus, when enabled, prefixes common in
// the corpus.
type Prefix struct{}

// prefixState is the setup output of the prefix routine
type prefixState struct {
	prefixes []string // as declared or discovered
	folded   []string // lower-cased, same order
}

// Name returns the display name of the routine
func (Prefix) Name() string { return "Remove Prefixes" }

// Key returns the routine key
func (Prefix) Key() string { return "prefix" }

// Weight returns the routine weight
func (Prefix) Weight() int { return 50 }

// Setup collects the candidate prefixes for this corpus
func (Prefix) Setup(corpus []string, _ []string, opts Options) (any, error) {
	seen := make(map[string]bool)
	state := &prefixState{}
	add := func(p string) {
		folded := strings.ToLower(p)
		if p == "" || seen[folded] {
			return
		}
		seen[folded] = true
		state.prefixes = append(state.prefixes, p)
		state.folded = append(state.folded, folded)
	}

	for _, p := range opts.Prefixes {
		add(p)
	}

	if opts.FindDBPrefixes {
		trie := newPrefixTrie()
		for _, term := range corpus {
			trie.Insert(term)
		}
		for _, p := range trie.Prefixes(opts.PrefixLengthMin, opts.PrefixLengthMax, opts.PrefixThreshold) {
			add(p)
		}
	}

	return state, nil
}

// Test strips every candidate prefix found at the start of either term from
// both terms and matches when any stripped pair is equal. The matching
// prefixes are reported in the "prefixes" property.
func (Prefix) Test(a, b string, _ Options, state any) (Result, error) {
	st, ok := state.(*prefixState)
	if !ok {
		return Result{}, fmt.Errorf("prefix routine used without setup")
	}

	a = strings.ToLower(a)
	b = strings.ToLower(b)

	var found []int
	for i, p := range st.folded {
		if strings.HasPrefix(a, p) || strings.HasPrefix(b, p) {
			found = append(found, i)
		}
	}
	if len(found) == 0 {
		return Result{Properties: map[string]any{"prefixes": []string{}}}, nil
	}

	strippedB := make([]string, len(found))
	for j, idx := range found {
		strippedB[j] = strings.TrimPrefix(b, st.folded[idx])
	}

	matched := make([]string, 0)
	seen := make(map[int]bool)
	for _, i := range found {
		sa := strings.TrimPrefix(a, st.folded[i])
		for j, k := range found {
			if sa != strippedB[j] {
				continue
			}
			for _, idx := range []int{i, k} {
				if !seen[idx] {
					seen[idx] = true
					matched = append(matched, st.prefixes[idx])
				}
			}
		}
	}

	return Result{
		IsMatch:    len(matched) > 0,
		Properties: map[string]any{"prefixes": matched},
	}, nil
}
