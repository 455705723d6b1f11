// Package search matches free-text query terms against a corpus of reference
// terms with the heuristics in package routines.
package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors returned by the engine
var (
	// ErrConfiguration is returned before any work starts when a run is
	// missing its query terms, its corpus, or names an unknown routine
	ErrConfiguration = errors.New("invalid search configuration")

	// ErrRoutine wraps a failure raised by a matching routine
	ErrRoutine = errors.New("search routine failed")
)

// TermType is the field of a corpus record a reference term came from
type TermType string

// Reference term types
const (
	TypeName            TermType = "name"
	TypeSynonym         TermType = "synonym"
	TypeAccessionNumber TermType = "accession_number"
	TypeCross           TermType = "cross"
)

// IncludeTypes selects which reference term types take part in a search
type IncludeTypes struct {
	Name            bool `json:"name"`
	Synonym         bool `json:"synonym"`
	AccessionNumber bool `json:"accession_number"`
	Cross           bool `json:"cross"`
}

// AllTypes includes every term type
func AllTypes() IncludeTypes {
	return IncludeTypes{Name: true, Synonym: true, AccessionNumber: true, Cross: true}
}

// Allows reports whether terms of type t are searched
func (it IncludeTypes) Allows(t TermType) bool {
	switch t {
	case TypeName:
		return it.Name
	case TypeSynonym:
		return it.Synonym
	case TypeAccessionNumber:
		return it.AccessionNumber
	case TypeCross:
		return it.Cross
	}
	return false
}

// Record is the corpus record a reference term points at
type Record struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ReferenceTerm is one searchable string of a corpus record
type ReferenceTerm struct {
	Term   string   `json:"term"`
	Type   TermType `json:"type"`
	Record Record   `json:"record"`
}

// QueryTerm is a term to find matches for. SourceRecordID is set when the
// term was itself taken from the corpus; that record is never matched.
type QueryTerm struct {
	Term           string   `json:"term"`
	Type           TermType `json:"type,omitempty"`
	SourceRecordID string   `json:"id,omitempty"`
}

// UnmarshalJSON accepts either a bare string or a term object
func (q *QueryTerm) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = QueryTerm{Term: s}
		return nil
	}
	type plain QueryTerm
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("query term must be a string or an object: %w", err)
	}
	*q = QueryTerm(p)
	return nil
}

// Terms converts plain strings into query terms, trimming blanks
func Terms(values ...string) []QueryTerm {
	out := make([]QueryTerm, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, QueryTerm{Term: v})
		}
	}
	return out
}

// RoutineRef identifies the routine behind a matched term
type RoutineRef struct {
	Key        string         `json:"key"`
	Name       string         `json:"name"`
	Weight     int            `json:"weight"`
	Properties map[string]any `json:"properties,omitempty"`
}

// CorpusTermRef is the reference term that matched
type CorpusTermRef struct {
	Term string   `json:"term"`
	Type TermType `json:"type"`
}

// MatchedTerm is one piece of evidence linking a query term to a record
type MatchedTerm struct {
	Routine    RoutineRef    `json:"routine"`
	CorpusTerm CorpusTermRef `json:"db_term"`
}

// Match collects every matched term pointing at one record
type Match struct {
	RecordID     string        `json:"record_id"`
	Record       *Record       `json:"record,omitempty"`
	MatchedTerms []MatchedTerm `json:"matched_terms"`
}

// Weight returns the highest routine weight among the matched terms
func (m *Match) Weight() int {
	w := 0
	for _, mt := range m.MatchedTerms {
		if mt.Routine.Weight > w {
			w = mt.Routine.Weight
		}
	}
	return w
}

// MatchRecord holds the matches of one query term, keyed by record name
type MatchRecord struct {
	SearchTerm     string            `json:"search_term"`
	ExactMatchName string            `json:"exact_match"`
	RoutinesUsed   []string          `json:"search_routines"`
	Matches        map[string]*Match `json:"matches"`
}

func newMatchRecord(term string) *MatchRecord {
	return &MatchRecord{
		SearchTerm:   term,
		RoutinesUsed: []string{},
		Matches:      make(map[string]*Match),
	}
}

// matchRecordJSON is the wire form of MatchRecord. exact_match holds the
// matched record name, or false when there was no exact hit.
type matchRecordJSON struct {
	SearchTerm     string            `json:"search_term"`
	ExactMatchName json.RawMessage   `json:"exact_match"`
	RoutinesUsed   []string          `json:"search_routines"`
	Matches        map[string]*Match `json:"matches"`
}

// MarshalJSON implements json.Marshaler
func (r MatchRecord) MarshalJSON() ([]byte, error) {
	exact := []byte("false")
	if r.ExactMatchName != "" {
		var err error
		if exact, err = json.Marshal(r.ExactMatchName); err != nil {
			return nil, err
		}
	}
	return json.Marshal(matchRecordJSON{
		SearchTerm:     r.SearchTerm,
		ExactMatchName: exact,
		RoutinesUsed:   r.RoutinesUsed,
		Matches:        r.Matches,
	})
}

// UnmarshalJSON implements json.Unmarshaler, accepting a name or false for
// exact_match
func (r *MatchRecord) UnmarshalJSON(data []byte) error {
	var w matchRecordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = MatchRecord{SearchTerm: w.SearchTerm, RoutinesUsed: w.RoutinesUsed, Matches: w.Matches}
	if len(w.ExactMatchName) == 0 || string(w.ExactMatchName) == "false" || string(w.ExactMatchName) == "null" {
		return nil
	}
	return json.Unmarshal(w.ExactMatchName, &r.ExactMatchName)
}

// HasExactMatch reports whether an exact match was found
func (r *MatchRecord) HasExactMatch() bool {
	return r.ExactMatchName != ""
}

func (r *MatchRecord) addRoutine(key string) {
	for _, k := range r.RoutinesUsed {
		if k == key {
			return
		}
	}
	r.RoutinesUsed = append(r.RoutinesUsed, key)
}

// RankedMatch is a match with its record name and weight
type RankedMatch struct {
	Name   string
	Weight int
	*Match
}

// Ranked returns the matches ordered by weight, highest first, then by name
func (r *MatchRecord) Ranked() []RankedMatch {
	out := make([]RankedMatch, 0, len(r.Matches))
	for name, m := range r.Matches {
		out = append(out, RankedMatch{Name: name, Weight: m.Weight(), Match: m})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Results maps each query term to its match record
type Results map[string]*MatchRecord

// Merge folds src into dst and returns dst. The exact match flag is OR'd,
// routine keys are unioned, and matches for the same record name are
// combined rather than replaced.
func Merge(dst, src Results) Results {
	if dst == nil {
		dst = make(Results, len(src))
	}
	for key, rec := range src {
		cur, ok := dst[key]
		if !ok {
			dst[key] = rec
			continue
		}
		if cur.ExactMatchName == "" {
			cur.ExactMatchName = rec.ExactMatchName
		}
		for _, k := range rec.RoutinesUsed {
			cur.addRoutine(k)
		}
		for name, m := range rec.Matches {
			existing, ok := cur.Matches[name]
			if !ok {
				cur.Matches[name] = m
				continue
			}
			existing.MatchedTerms = append(existing.MatchedTerms, m.MatchedTerms...)
			if existing.Record == nil {
				existing.Record = m.Record
			}
		}
	}
	return dst
}
