package search

import (
	"encoding/json"
	"testing"
)

func evidence(key string, weight int, dbTerm string) MatchedTerm {
	return MatchedTerm{
		Routine:    RoutineRef{Key: key, Name: key, Weight: weight},
		CorpusTerm: CorpusTermRef{Term: dbTerm, Type: TypeName},
	}
}

func TestMerge(t *testing.T) {
	first := Results{
		"WHEAT": {
			SearchTerm:   "WHEAT",
			RoutinesUsed: []string{"substring"},
			Matches: map[string]*Match{
				"WHEATLINE9": {RecordID: "9", MatchedTerms: []MatchedTerm{evidence("substring", 60, "WHEATLINE9")}},
			},
		},
	}
	second := Results{
		"WHEAT": {
			SearchTerm:     "WHEAT",
			ExactMatchName: "WHEAT",
			RoutinesUsed:   []string{"exact", "substring"},
			Matches: map[string]*Match{
				"WHEAT":      {RecordID: "1", MatchedTerms: []MatchedTerm{evidence("exact", 100, "WHEAT")}},
				"WHEATLINE9": {RecordID: "9", MatchedTerms: []MatchedTerm{evidence("substring", 60, "WL9-WHEAT")}},
			},
		},
		"KANSAS": newMatchRecord("KANSAS"),
	}

	merged := Merge(first, second)

	rec := merged["WHEAT"]
	if !rec.HasExactMatch() || rec.ExactMatchName != "WHEAT" {
		t.Errorf("expected exact flag to be carried over, got %q", rec.ExactMatchName)
	}
	if len(rec.RoutinesUsed) != 2 || rec.RoutinesUsed[0] != "substring" || rec.RoutinesUsed[1] != "exact" {
		t.Errorf("expected unioned routines [substring exact], got %v", rec.RoutinesUsed)
	}
	if len(rec.Matches) != 2 {
		t.Errorf("expected 2 matches, got %d", len(rec.Matches))
	}
	if n := len(rec.Matches["WHEATLINE9"].MatchedTerms); n != 2 {
		t.Errorf("expected matched terms to be appended, got %d", n)
	}
	if _, ok := merged["KANSAS"]; !ok {
		t.Error("expected KANSAS record to be added")
	}
}

func TestMergeKeepsFirstExact(t *testing.T) {
	dst := Results{"A": {SearchTerm: "A", ExactMatchName: "FIRST", Matches: map[string]*Match{}}}
	src := Results{"A": {SearchTerm: "A", ExactMatchName: "SECOND", Matches: map[string]*Match{}}}

	Merge(dst, src)
	if dst["A"].ExactMatchName != "FIRST" {
		t.Errorf("expected FIRST, got %s", dst["A"].ExactMatchName)
	}
}

func TestMergeNil(t *testing.T) {
	src := Results{"A": newMatchRecord("A")}
	merged := Merge(nil, src)
	if len(merged) != 1 {
		t.Errorf("expected 1 record, got %d", len(merged))
	}
}

func TestRanked(t *testing.T) {
	rec := newMatchRecord("KANSAS")
	rec.Matches["ZETA"] = &Match{MatchedTerms: []MatchedTerm{evidence("exact", 100, "ZETA")}}
	rec.Matches["KANZAS"] = &Match{MatchedTerms: []MatchedTerm{evidence("edit_distance", 10, "KANZAS")}}
	rec.Matches["ALPHA"] = &Match{MatchedTerms: []MatchedTerm{
		evidence("edit_distance", 10, "ALPHA"),
		evidence("exact", 100, "ALPHA"),
	}}

	ranked := rec.Ranked()
	want := []string{"ALPHA", "ZETA", "KANZAS"}
	if len(ranked) != len(want) {
		t.Fatalf("expected %d ranked matches, got %d", len(want), len(ranked))
	}
	for i, name := range want {
		if ranked[i].Name != name {
			t.Errorf("rank %d: expected %s, got %s", i, name, ranked[i].Name)
		}
	}
	if ranked[0].Weight != 100 {
		t.Errorf("expected top weight 100, got %d", ranked[0].Weight)
	}
}

func TestMatchRecordJSON(t *testing.T) {
	rec := newMatchRecord("WHEAT")
	rec.ExactMatchName = "WHEAT"
	rec.addRoutine("exact")
	rec.addRoutine("exact")
	rec.Matches["WHEAT"] = &Match{RecordID: "1", MatchedTerms: []MatchedTerm{evidence("exact", 100, "WHEAT")}}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"search_term", "exact_match", "search_routines", "matches"} {
		if _, ok := out[key]; !ok {
			t.Errorf("missing key %s in %s", key, data)
		}
	}
	if routines := out["search_routines"].([]any); len(routines) != 1 {
		t.Errorf("expected deduplicated routines, got %v", routines)
	}
}

func TestMatchRecordJSONNoExactMatch(t *testing.T) {
	rec := newMatchRecord("KANZAS")
	rec.addRoutine("edit_distance")
	rec.Matches["KANSAS"] = &Match{RecordID: "1", MatchedTerms: []MatchedTerm{evidence("edit_distance", 10, "KANSAS")}}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if v, ok := out["exact_match"]; !ok || v != false {
		t.Errorf("expected exact_match false, got %v in %s", v, data)
	}

	var back MatchRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal into MatchRecord failed: %v", err)
	}
	if back.HasExactMatch() || back.SearchTerm != "KANZAS" || back.Matches["KANSAS"].RecordID != "1" {
		t.Errorf("unexpected round trip %+v", back)
	}

	exact := newMatchRecord("WHEAT")
	exact.ExactMatchName = "WHEAT"
	data, _ = json.Marshal(Results{"WHEAT": exact})
	var results Results
	if err := json.Unmarshal(data, &results); err != nil {
		t.Fatalf("Unmarshal results failed: %v", err)
	}
	if results["WHEAT"].ExactMatchName != "WHEAT" {
		t.Errorf("expected exact name to survive, got %q", results["WHEAT"].ExactMatchName)
	}
}

func TestIncludeTypes(t *testing.T) {
	it := IncludeTypes{Name: true}
	if !it.Allows(TypeName) || it.Allows(TypeSynonym) || it.Allows("other") {
		t.Errorf("unexpected Allows results for %+v", it)
	}
	all := AllTypes()
	for _, typ := range []TermType{TypeName, TypeSynonym, TypeAccessionNumber, TypeCross} {
		if !all.Allows(typ) {
			t.Errorf("AllTypes should allow %s", typ)
		}
	}
}
