package streamlite

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dsjohal14/synfinder/internal/scope/search"
)

// page is the BrAPI list response envelope shared by v1 and v2
type page struct {
	Metadata struct {
		Pagination struct {
			TotalCount int `json:"totalCount"`
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	} `json:"metadata"`
	Result struct {
		Data []json.RawMessage `json:"data"`
	} `json:"result"`
}

// recordType is one BrAPI list endpoint and how to turn its records into
// reference terms for each supported major version
type recordType struct {
	name     string
	endpoint string
	parse    map[string]func(json.RawMessage) ([]search.ReferenceTerm, error)
}

var recordTypes = []recordType{
	{
		name:     "germplasm",
		endpoint: "germplasm",
		parse: map[string]func(json.RawMessage) ([]search.ReferenceTerm, error){
			"v1": parseGermplasmV1,
			"v2": parseGermplasmV2,
		},
	},
	{
		name:     "crosses",
		endpoint: "crosses",
		parse: map[string]func(json.RawMessage) ([]search.ReferenceTerm, error){
			"v2": parseCrossV2,
		},
	},
}

type germplasmV1 struct {
	ID              string   `json:"germplasmDbId"`
	Name            string   `json:"germplasmName"`
	AccessionNumber string   `json:"accessionNumber"`
	Synonyms        []string `json:"synonyms"`
}

type germplasmV2 struct {
	ID              string `json:"germplasmDbId"`
	Name            string `json:"germplasmName"`
	AccessionNumber string `json:"accessionNumber"`
	Synonyms        []struct {
		Synonym string `json:"synonym"`
		Type    string `json:"type"`
	} `json:"synonyms"`
}

type crossV2 struct {
	ID   string `json:"crossDbId"`
	Name string `json:"crossName"`
}

func parseGermplasmV1(raw json.RawMessage) ([]search.ReferenceTerm, error) {
	var g germplasmV1
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("invalid germplasm record: %w", err)
	}
	return germplasmTerms(raw, g.ID, g.Name, g.AccessionNumber, g.Synonyms), nil
}

func parseGermplasmV2(raw json.RawMessage) ([]search.ReferenceTerm, error) {
	var g germplasmV2
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("invalid germplasm record: %w", err)
	}
	synonyms := make([]string, len(g.Synonyms))
	for i, s := range g.Synonyms {
		synonyms[i] = s.Synonym
	}
	return germplasmTerms(raw, g.ID, g.Name, g.AccessionNumber, synonyms), nil
}

func parseCrossV2(raw json.RawMessage) ([]search.ReferenceTerm, error) {
	var c crossV2
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("invalid cross record: %w", err)
	}
	record := search.Record{ID: c.ID, Name: strings.TrimSpace(c.Name), Data: raw}
	var terms []search.ReferenceTerm
	return appendTerm(terms, c.Name, search.TypeCross, record), nil
}

func germplasmTerms(raw json.RawMessage, id, name, accession string, synonyms []string) []search.ReferenceTerm {
	record := search.Record{ID: id, Name: strings.TrimSpace(name), Data: raw}

	terms := make([]search.ReferenceTerm, 0, 2+len(synonyms))
	terms = appendTerm(terms, name, search.TypeName, record)
	for _, s := range synonyms {
		terms = appendTerm(terms, s, search.TypeSynonym, record)
	}
	return appendTerm(terms, accession, search.TypeAccessionNumber, record)
}

func appendTerm(terms []search.ReferenceTerm, value string, typ search.TermType, record search.Record) []search.ReferenceTerm {
	value = strings.TrimSpace(value)
	if value == "" {
		return terms
	}
	return append(terms, search.ReferenceTerm{Term: value, Type: typ, Record: record})
}
