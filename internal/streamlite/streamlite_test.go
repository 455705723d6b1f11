package streamlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dsjohal14/synfinder/internal/scope/search"
)

// fakeServer serves total germplasm records (and crosses) in BrAPI format
type fakeServer struct {
	version  string
	total    int
	failPage int // -1 disables
	token    string

	mu       sync.Mutex
	params   []string
	inflight atomic.Int32
	peak     atomic.Int32
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	s.mu.Lock()
	s.params = append(s.params, q.Get("programDbId"))
	s.mu.Unlock()

	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("pageSize"))
	if page == s.failPage {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}

	var data []any
	switch r.URL.Path {
	case "/brapi/germplasm":
		for i := page * size; i < min((page+1)*size, s.total); i++ {
			id := strconv.Itoa(i)
			rec := map[string]any{
				"germplasmDbId":   id,
				"germplasmName":   " G" + id + " ",
				"accessionNumber": "PI" + id,
			}
			if s.version == "v2" {
				rec["synonyms"] = []map[string]string{{"synonym": "S" + id, "type": "alias"}}
			} else {
				rec["synonyms"] = []string{"S" + id, ""}
			}
			data = append(data, rec)
		}
	case "/brapi/crosses":
		data = append(data, map[string]any{"crossDbId": "c1", "crossName": "G1/G2"})
	default:
		http.NotFound(w, r)
		return
	}

	totalPages := (s.total + size - 1) / size
	if r.URL.Path == "/brapi/crosses" {
		totalPages = 1
	}
	resp := map[string]any{
		"metadata": map[string]any{
			"pagination": map[string]any{"totalCount": s.total, "totalPages": totalPages, "currentPage": page, "pageSize": size},
		},
		"result": map[string]any{"data": data},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func collect(t *testing.T, srv *fakeServer, db Database) ([]search.ReferenceTerm, Result, error) {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	db.Address = ts.URL + "/brapi/"

	var terms []search.ReferenceTerm
	client := NewClient(ts.Client(), zerolog.Nop())
	res, err := client.Fetch(context.Background(), db, func(batch []search.ReferenceTerm) error {
		terms = append(terms, batch...)
		return nil
	}, nil)
	return terms, res, err
}

func TestFetchV1(t *testing.T) {
	srv := &fakeServer{version: "v1", total: 25, failPage: -1, token: "secret"}
	terms, res, err := collect(t, srv, Database{
		Version:   "v1.3",
		AuthToken: "secret",
		PageSize:  10,
		CallLimit: 2,
		Params:    map[string]string{"programDbId": "42"},
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.Records != 25 || res.Partial {
		t.Errorf("unexpected result %+v", res)
	}

	// name, synonym and accession per record; empty synonyms skipped
	if len(terms) != 75 {
		t.Fatalf("expected 75 terms, got %d", len(terms))
	}
	for i := 0; i < 25; i++ {
		name := terms[i*3]
		if name.Term != fmt.Sprintf("G%d", i) || name.Type != search.TypeName {
			t.Fatalf("terms out of order at record %d: %+v", i, name)
		}
		if name.Record.ID != strconv.Itoa(i) || name.Record.Name != name.Term {
			t.Errorf("unexpected record %+v", name.Record)
		}
		if terms[i*3+1].Type != search.TypeSynonym || terms[i*3+2].Type != search.TypeAccessionNumber {
			t.Errorf("unexpected term types for record %d", i)
		}
	}

	for _, p := range srv.params {
		if p != "42" {
			t.Errorf("expected params on every request, got %q", p)
		}
	}
	if srv.peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent requests, saw %d", srv.peak.Load())
	}
}

func TestFetchV2(t *testing.T) {
	srv := &fakeServer{version: "v2", total: 3, failPage: -1}
	terms, res, err := collect(t, srv, Database{Version: "v2.1"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.Records != 4 {
		t.Errorf("expected 3 germplasm + 1 cross, got %d", res.Records)
	}

	last := terms[len(terms)-1]
	if last.Type != search.TypeCross || last.Term != "G1/G2" || last.Record.ID != "c1" {
		t.Errorf("expected trailing cross term, got %+v", last)
	}
	if terms[1].Term != "S0" || terms[1].Type != search.TypeSynonym {
		t.Errorf("expected v2 synonym objects to be flattened, got %+v", terms[1])
	}
	if len(terms[0].Record.Data) == 0 {
		t.Error("expected raw record payload")
	}
}

func TestFetchPartial(t *testing.T) {
	srv := &fakeServer{version: "v1", total: 50, failPage: 3}
	terms, res, err := collect(t, srv, Database{Version: "v1.3", PageSize: 10, CallLimit: 2})
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if !res.Partial || res.Records != 30 {
		t.Errorf("expected 30 records before the failed page, got %+v", res)
	}
	if len(terms) != 90 {
		t.Errorf("expected gathered terms to be emitted, got %d", len(terms))
	}
}

func TestFetchUnsupportedVersion(t *testing.T) {
	srv := &fakeServer{version: "v1", total: 5, failPage: -1}
	terms, res, err := collect(t, srv, Database{Version: "v3.0"})
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
	if len(terms) != 0 || !res.Partial {
		t.Errorf("expected nothing fetched, got %d terms %+v", len(terms), res)
	}
}

func TestFetchRequiresAddress(t *testing.T) {
	client := NewClient(nil, zerolog.Nop())
	if _, err := client.Fetch(context.Background(), Database{}, nil, nil); err == nil {
		t.Error("expected error without address")
	}
}

func TestFetchEmitError(t *testing.T) {
	ts := httptest.NewServer(&fakeServer{version: "v1", total: 5, failPage: -1})
	defer ts.Close()

	client := NewClient(ts.Client(), zerolog.Nop())
	stored := errors.New("disk full")
	_, err := client.Fetch(context.Background(), Database{Address: ts.URL + "/brapi", Version: "v1"}, func([]search.ReferenceTerm) error {
		return stored
	}, nil)
	if !errors.Is(err, stored) {
		t.Errorf("expected emit error to surface, got %v", err)
	}
}

func TestMajor(t *testing.T) {
	tests := []struct {
		db   Database
		want string
	}{
		{Database{Version: "v1.3"}, "v1"},
		{Database{Version: "V2.0"}, "v2"},
		{Database{Version: "v3"}, ""},
		{Database{Address: "https://x.org/brapi/v2/"}, "v2"},
		{Database{Address: "https://x.org/brapi/v1"}, "v1"},
		{Database{Address: "https://x.org/brapi"}, "v1"},
	}
	for _, tt := range tests {
		if got := tt.db.Major(); got != tt.want {
			t.Errorf("Major(%+v) = %q, want %q", tt.db, got, tt.want)
		}
	}
}

func TestPublic(t *testing.T) {
	db := Database{Name: "x", Address: "https://x.org", AuthToken: "secret"}
	if db.Public().AuthToken != "" {
		t.Error("auth token should be removed")
	}
	if db.AuthToken != "secret" {
		t.Error("original should be untouched")
	}
}
