package search

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dsjohal14/synfinder/internal/libs/accel"
	"github.com/dsjohal14/synfinder/internal/scope/search/routines"
)

// ProcessingChunkSize is the number of corpus terms compared between two
// progress reports
const ProcessingChunkSize = 1000

// caseInsensitiveKey and caseInsensitiveName mark evidence found only after
// the case-sensitive comparison failed
const (
	caseInsensitiveKey  = "_ci"
	caseInsensitiveName = " (case-insensitive)"
)

// ProgressFunc receives the percent of the corpus processed so far
type ProgressFunc func(percent float64)

// Config controls a single engine run
type Config struct {
	IncludeTypes   IncludeTypes     `json:"database_terms"`
	Routines       []string         `json:"search_routines"`
	RoutineOptions routines.Options `json:"search_routine_options"`
	CaseSensitive  bool             `json:"case_sensitive"`
	ReturnRecords  bool             `json:"return_records"`

	// IsolateRoutineErrors turns a failing routine into "no match" for the
	// pair instead of aborting the run
	IsolateRoutineErrors bool `json:"isolate_routine_errors"`
}

// Validate checks that the configuration names known routines only
func (c Config) Validate() error {
	if err := routines.Validate(c.Routines); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

// Engine applies the enabled routines to every (query, corpus term) pair
type Engine struct {
	routines []routines.Routine
	batch    *accel.Batch
	logger   zerolog.Logger
}

// NewEngine creates an engine over the given routines. A nil slice uses the
// registered routines.
func NewEngine(rs []routines.Routine, logger zerolog.Logger) *Engine {
	if rs == nil {
		rs = routines.All()
	}
	return &Engine{
		routines: rs,
		batch:    accel.NewBatch(ProcessingChunkSize),
		logger:   logger,
	}
}

// enabledRoutine is a routine prepared for one run
type enabledRoutine struct {
	routine routines.Routine
	state   any
	failed  bool
}

// Run matches queries against corpus. Setup runs once over the whole corpus
// slice; the comparison then walks the corpus in processing chunks, yielding
// to the scheduler and reporting progress after each one.
func (e *Engine) Run(ctx context.Context, queries []QueryTerm, corpus []ReferenceTerm, cfg Config, progress ProgressFunc) (Results, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: query terms are required", ErrConfiguration)
	}
	if corpus == nil {
		return nil, fmt.Errorf("%w: corpus is required", ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(float64) {}
	}

	fold := strings.ToUpper
	if cfg.CaseSensitive {
		fold = func(s string) string { return s }
	}

	// One record per distinct query term
	results := make(Results, len(queries))
	unique := make([]QueryTerm, 0, len(queries))
	for _, q := range queries {
		if _, ok := results[q.Term]; ok {
			continue
		}
		results[q.Term] = newMatchRecord(q.Term)
		unique = append(unique, q)
	}

	folded := make([]string, len(unique))
	upper := make([]string, len(unique))
	for i, q := range unique {
		folded[i] = fold(q.Term)
		upper[i] = strings.ToUpper(q.Term)
	}

	enabled, err := e.setup(corpus, folded, cfg, fold)
	if err != nil {
		return nil, err
	}

	total := len(corpus)
	e.logger.Debug().
		Int("queries", len(unique)).
		Int("corpus", total).
		Int("batches", e.batch.Count(total)).
		Int("routines", len(enabled)).
		Msg("matching")

	err = e.batch.Each(total, func(start, end int) error {
		for i := start; i < end; i++ {
			term := &corpus[i]
			if !cfg.IncludeTypes.Allows(term.Type) {
				continue
			}
			dt := fold(term.Term)
			dtUpper := strings.ToUpper(term.Term)

			for qi, q := range unique {
				if q.SourceRecordID != "" && q.SourceRecordID == term.Record.ID {
					continue
				}
				rec := results[q.Term]
				for _, er := range enabled {
					if er.failed {
						continue
					}
					res, err := e.test(er, dt, folded[qi], cfg)
					if err != nil {
						return err
					}
					if res.IsMatch {
						record(rec, er.routine, res, term, false, cfg.ReturnRecords)
						continue
					}
					if !cfg.CaseSensitive {
						continue
					}
					res, err = e.test(er, dtUpper, upper[qi], cfg)
					if err != nil {
						return err
					}
					if res.IsMatch {
						record(rec, er.routine, res, term, true, cfg.ReturnRecords)
					}
				}
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.Gosched()
		progress(float64(end) / float64(total) * 100)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if total == 0 {
		progress(100)
	}
	return results, nil
}

// setup prepares every enabled routine, running Setup where defined
func (e *Engine) setup(corpus []ReferenceTerm, queries []string, cfg Config, fold func(string) string) ([]*enabledRoutine, error) {
	want := make(map[string]bool, len(cfg.Routines))
	for _, k := range cfg.Routines {
		want[k] = true
	}

	var terms []string
	enabled := make([]*enabledRoutine, 0, len(want))
	for _, r := range e.routines {
		if !want[r.Key()] {
			continue
		}
		er := &enabledRoutine{routine: r}
		enabled = append(enabled, er)

		sr, ok := r.(routines.SetupRoutine)
		if !ok {
			continue
		}
		if terms == nil {
			terms = make([]string, len(corpus))
			for i := range corpus {
				terms[i] = fold(corpus[i].Term)
			}
		}
		state, err := safeSetup(sr, terms, queries, cfg.RoutineOptions)
		if err != nil {
			wrapped := fmt.Errorf("%w: %s setup: %v", ErrRoutine, r.Key(), err)
			if !cfg.IsolateRoutineErrors {
				return nil, wrapped
			}
			e.logger.Warn().Err(wrapped).Str("routine", r.Key()).Msg("routine disabled for this run")
			er.failed = true
			continue
		}
		er.state = state
	}
	return enabled, nil
}

// test runs one routine on one pair. With isolation enabled a failure is
// logged once, the routine is disabled for the rest of the run, and the pair
// counts as no match.
func (e *Engine) test(er *enabledRoutine, a, b string, cfg Config) (routines.Result, error) {
	res, err := safeTest(er.routine, a, b, cfg.RoutineOptions, er.state)
	if err == nil {
		return res, nil
	}
	wrapped := fmt.Errorf("%w: %s: %v", ErrRoutine, er.routine.Key(), err)
	if !cfg.IsolateRoutineErrors {
		return routines.Result{}, wrapped
	}
	e.logger.Warn().Err(wrapped).Str("routine", er.routine.Key()).Msg("routine disabled for this run")
	er.failed = true
	return routines.Result{}, nil
}

func safeSetup(r routines.SetupRoutine, corpus, queries []string, opts routines.Options) (state any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.Setup(corpus, queries, opts)
}

func safeTest(r routines.Routine, a, b string, opts routines.Options, state any) (res routines.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.Test(a, b, opts, state)
}

// record adds the evidence of one routine hit to rec
func record(rec *MatchRecord, r routines.Routine, res routines.Result, term *ReferenceTerm, caseInsensitive, withRecord bool) {
	ref := RoutineRef{
		Key:        r.Key(),
		Name:       r.Name(),
		Weight:     r.Weight(),
		Properties: res.Properties,
	}
	if caseInsensitive {
		ref.Key += caseInsensitiveKey
		ref.Name += caseInsensitiveName
	}

	name := term.Record.Name
	if name == "" {
		name = term.Record.ID
	}

	if r.Key() == "exact" && !caseInsensitive && rec.ExactMatchName == "" {
		rec.ExactMatchName = name
	}
	rec.addRoutine(ref.Key)

	m, ok := rec.Matches[name]
	if !ok {
		m = &Match{RecordID: term.Record.ID}
		rec.Matches[name] = m
	}
	if withRecord && m.Record == nil {
		recordCopy := term.Record
		m.Record = &recordCopy
	}
	m.MatchedTerms = append(m.MatchedTerms, MatchedTerm{
		Routine:    ref,
		CorpusTerm: CorpusTermRef{Term: term.Term, Type: term.Type},
	})
}
