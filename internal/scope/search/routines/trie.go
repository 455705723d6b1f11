package routines

import "sort"

// prefixTrie is a rune trie over distinct corpus terms. Every node counts how
// many distinct terms pass through it, so the count at the node reached by a
// prefix is the number of terms starting with that prefix.
type prefixTrie struct {
	root *prefixNode
}

type prefixNode struct {
	count    int
	terminal bool
	children map[rune]*prefixNode
}

func newPrefixTrie() *prefixTrie {
	return &prefixTrie{root: &prefixNode{children: make(map[rune]*prefixNode)}}
}

// Insert adds a term. Duplicate terms are counted once.
func (t *prefixTrie) Insert(term string) {
	if t.contains(term) {
		return
	}
	node := t.root
	node.count++
	for _, r := range term {
		child, ok := node.children[r]
		if !ok {
			child = &prefixNode{children: make(map[rune]*prefixNode)}
			node.children[r] = child
		}
		child.count++
		node = child
	}
	node.terminal = true
}

func (t *prefixTrie) contains(term string) bool {
	node := t.root
	for _, r := range term {
		child, ok := node.children[r]
		if !ok {
			return false
		}
		node = child
	}
	return node.terminal
}

// Count returns the number of distinct terms starting with prefix
func (t *prefixTrie) Count(prefix string) int {
	node := t.root
	for _, r := range prefix {
		child, ok := node.children[r]
		if !ok {
			return 0
		}
		node = child
	}
	return node.count
}

// Prefixes returns every distinct prefix whose rune length is within
// [minLen, maxLen] and that starts at least threshold distinct terms, sorted
func (t *prefixTrie) Prefixes(minLen, maxLen, threshold int) []string {
	if minLen < 1 {
		minLen = 1
	}
	if maxLen < minLen {
		return nil
	}

	var out []string
	var walk func(node *prefixNode, path []rune)
	walk = func(node *prefixNode, path []rune) {
		depth := len(path)
		if depth >= minLen && node.count >= threshold {
			out = append(out, string(path))
		}
		if depth == maxLen {
			return
		}
		for r, child := range node.children {
			walk(child, append(path, r))
		}
	}
	for r, child := range t.root.children {
		walk(child, []rune{r})
	}

	sort.Strings(out)
	return out
}
