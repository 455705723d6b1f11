// Package pipeline drives the matching engine over cached corpora as
// background jobs: it refills the term cache from the external source,
// searches it one cache chunk at a time and merges the per-chunk results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dsjohal14/synfinder/internal/libs/jobs"
	"github.com/dsjohal14/synfinder/internal/libs/obs"
	"github.com/dsjohal14/synfinder/internal/scope/cache"
	"github.com/dsjohal14/synfinder/internal/scope/db"
	"github.com/dsjohal14/synfinder/internal/scope/search"
	"github.com/dsjohal14/synfinder/internal/streamlite"
)

// DefaultChunkSize is the number of terms per cache chunk
const DefaultChunkSize = 50000

// Job messages
const (
	titleFetch  = "Getting germplasm entries from the database"
	titleSearch = "Searching database terms"
)

// Fetcher streams the terms of an external database
type Fetcher interface {
	Fetch(ctx context.Context, database streamlite.Database, emit streamlite.EmitFunc, progress streamlite.ProgressFunc) (streamlite.Result, error)
}

// Service runs searches and cache refreshes
type Service struct {
	cache     *cache.TermCache
	registry  *jobs.Registry
	engine    *search.Engine
	fetcher   Fetcher
	chunkSize int
	logger    zerolog.Logger
}

// NewService wires the pipeline. chunkSize <= 0 uses DefaultChunkSize.
func NewService(c *cache.TermCache, registry *jobs.Registry, engine *search.Engine, fetcher Fetcher, chunkSize int, logger zerolog.Logger) *Service {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Service{
		cache:     c,
		registry:  registry,
		engine:    engine,
		fetcher:   fetcher,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Source returns the cache descriptor of a database
func Source(database streamlite.Database) db.SourceRef {
	return db.SourceRef{Address: database.Address, Params: database.Params}
}

// IsPartial reports whether err only means a fetch gathered part of the
// corpus. Such refreshes still leave a usable cache.
func IsPartial(err error) bool {
	return errors.Is(err, streamlite.ErrFetch) || errors.Is(err, streamlite.ErrUnsupportedVersion)
}

func validate(queries []search.QueryTerm, database streamlite.Database, cfg search.Config) error {
	if len(queries) == 0 {
		return fmt.Errorf("%w: query terms are required", search.ErrConfiguration)
	}
	if database.Address == "" {
		return fmt.Errorf("%w: database address is required", search.ErrConfiguration)
	}
	return cfg.Validate()
}

// Search matches queries against the cached corpus of database, refilling
// the cache first when it is empty or force is set. Cache chunks are searched
// strictly in order and merged; progress is reported to job id when it is
// not empty.
func (s *Service) Search(ctx context.Context, id string, queries []search.QueryTerm, database streamlite.Database, cfg search.Config, force bool) (search.Results, error) {
	if err := validate(queries, database, cfg); err != nil {
		return nil, err
	}
	src := Source(database)

	cached, err := s.cache.IsCached(ctx, src, 0)
	if err != nil {
		return nil, err
	}
	if force || !cached {
		if _, err := s.Refresh(ctx, id, database); err != nil && !IsPartial(err) {
			return nil, err
		}
	}

	release := s.cache.RLock(src)
	defer release()

	count, err := s.cache.Count(ctx, src)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		// Nothing to search, still one record per query
		return s.engine.Run(ctx, queries, []search.ReferenceTerm{}, cfg, nil)
	}

	log := obs.WithJob(s.logger, id, database.Address)
	sampler := obs.NewProgressSampler(10)
	span := 100 / float64(count)

	var merged search.Results
	for index := 1; index <= count; index++ {
		corpus, ok, err := s.cache.Get(ctx, src, index)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("cache chunk %d of %d missing for %s", index, count, database.Address)
		}

		s.message(id, titleSearch, fmt.Sprintf("Chunk %d of %d", index, count))
		start := float64(index-1) * span
		results, err := s.engine.Run(ctx, queries, corpus, cfg, func(p float64) {
			overall := start + p/100*span
			s.progress(id, overall)
			if sampler.ShouldLog(overall, titleSearch) {
				log.Info().Float64("progress", overall).Int("chunk", index).Msg("searching")
			}
		})
		if err != nil {
			return nil, err
		}
		merged = search.Merge(merged, results)
	}
	return merged, nil
}

// StartSearch validates the request and queues Search as a job. The job
// completes with search.Results, or with the error that stopped it.
func (s *Service) StartSearch(queries []search.QueryTerm, database streamlite.Database, cfg search.Config, force bool) (string, error) {
	if err := validate(queries, database, cfg); err != nil {
		return "", err
	}

	id := s.registry.Add(func(ctx context.Context, id string) {
		s.message(id, titleFetch, "This will take a few moments...")
		s.progress(id, jobs.IndeterminateProgress)

		results, err := s.Search(ctx, id, queries, database, cfg, force)
		if err != nil {
			s.registry.Fail(id, err)
			return
		}
		s.registry.Complete(id, results)
	})
	s.registry.Start(id)
	return id, nil
}

// Refresh replaces the cached corpus of database with a fresh fetch. The
// exclusive lease keeps concurrent searches and refreshes of the same source
// out until it is done. A partial fetch still caches what was gathered and
// returns an error for which IsPartial holds.
func (s *Service) Refresh(ctx context.Context, id string, database streamlite.Database) (streamlite.Result, error) {
	if database.Address == "" {
		return streamlite.Result{}, fmt.Errorf("%w: database address is required", search.ErrConfiguration)
	}
	src := Source(database)
	log := obs.WithJob(s.logger, id, database.Address)

	release := s.cache.Lock(src)
	defer release()

	if err := s.cache.Clear(ctx, src); err != nil {
		return streamlite.Result{}, err
	}

	w := &chunkWriter{ctx: ctx, cache: s.cache, src: src, size: s.chunkSize}
	sampler := obs.NewProgressSampler(10)

	s.message(id, titleFetch, "This will take a few moments...")
	s.progress(id, jobs.IndeterminateProgress)
	res, fetchErr := s.fetcher.Fetch(ctx, database, w.add, func(recordType string, done, total int) {
		if total <= 0 {
			return
		}
		p := float64(done) / float64(total) * 100
		s.progress(id, p)
		if sampler.ShouldLog(p, recordType) {
			log.Info().Str("type", recordType).Int("records", done).Int("total", total).Msg("fetching")
		}
	})
	if ctx.Err() != nil {
		return res, s.discard(ctx, src, ctx.Err())
	}
	if fetchErr != nil && !IsPartial(fetchErr) {
		return res, s.discard(ctx, src, fetchErr)
	}

	if err := w.flush(); err != nil {
		return res, s.discard(ctx, src, err)
	}

	event := log.Info()
	if fetchErr != nil {
		event = log.Warn().Err(fetchErr)
	}
	event.Int("records", res.Records).Int("terms", w.written).Int("chunks", w.index).Msg("cache refreshed")
	return res, fetchErr
}

// discard drops the chunks a failed refresh already stored so the source
// reads as not cached and the next search refills it. The caller holds the
// exclusive lease.
func (s *Service) discard(ctx context.Context, src db.SourceRef, cause error) error {
	if err := s.cache.Clear(context.WithoutCancel(ctx), src); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to discard incomplete cache: %w", err))
	}
	return cause
}

// StartRefresh queues Refresh as a job. The job completes with the fetch
// result.
func (s *Service) StartRefresh(database streamlite.Database) (string, error) {
	if database.Address == "" {
		return "", fmt.Errorf("%w: database address is required", search.ErrConfiguration)
	}

	id := s.registry.Add(func(ctx context.Context, id string) {
		res, err := s.Refresh(ctx, id, database)
		if err != nil && !IsPartial(err) {
			s.registry.Fail(id, err)
			return
		}
		s.registry.Complete(id, res)
	})
	s.registry.Start(id)
	return id, nil
}

// RefreshAll refreshes each database in turn. A failing database is logged
// and skipped; the errors of every failed database are joined.
func (s *Service) RefreshAll(ctx context.Context, databases []streamlite.Database) error {
	var errs []error
	for _, database := range databases {
		if err := ctx.Err(); err != nil {
			return err
		}
		log := s.logger.With().Str("database", database.Name).Str("address", database.Address).Logger()

		started := time.Now()
		res, err := s.Refresh(ctx, "", database)
		switch {
		case err == nil:
			log.Info().Int("records", res.Records).Dur("elapsed", time.Since(started)).Msg("database updated")
		case IsPartial(err):
			log.Warn().Err(err).Int("records", res.Records).Msg("database partially updated")
		default:
			log.Error().Err(err).Msg("database update failed")
			errs = append(errs, fmt.Errorf("%s: %w", database.Address, err))
		}
	}
	return errors.Join(errs...)
}

// StartCorpusSearch queues a search of every cached name term of database
// against the database itself. Each query carries its record id so a record
// never matches itself.
func (s *Service) StartCorpusSearch(database streamlite.Database, cfg search.Config) (string, error) {
	if database.Address == "" {
		return "", fmt.Errorf("%w: database address is required", search.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	id := s.registry.Add(func(ctx context.Context, id string) {
		queries, err := s.corpusQueries(ctx, id, database)
		if err != nil {
			s.registry.Fail(id, err)
			return
		}
		if len(queries) == 0 {
			s.registry.Complete(id, search.Results{})
			return
		}

		results, err := s.Search(ctx, id, queries, database, cfg, false)
		if err != nil {
			s.registry.Fail(id, err)
			return
		}
		s.registry.Complete(id, results)
	})
	s.registry.Start(id)
	return id, nil
}

func (s *Service) corpusQueries(ctx context.Context, id string, database streamlite.Database) ([]search.QueryTerm, error) {
	src := Source(database)
	cached, err := s.cache.IsCached(ctx, src, 0)
	if err != nil {
		return nil, err
	}
	if !cached {
		if _, err := s.Refresh(ctx, id, database); err != nil && !IsPartial(err) {
			return nil, err
		}
	}

	var queries []search.QueryTerm
	err = s.each(ctx, src, func(t *search.ReferenceTerm) bool {
		if t.Type == search.TypeName {
			queries = append(queries, search.QueryTerm{Term: t.Term, Type: t.Type, SourceRecordID: t.Record.ID})
		}
		return true
	})
	return queries, err
}

// Record looks up a cached record by id. ok is false when the record is not
// in the cache.
func (s *Service) Record(ctx context.Context, database streamlite.Database, recordID string) (*search.Record, bool, error) {
	var found *search.Record
	err := s.each(ctx, Source(database), func(t *search.ReferenceTerm) bool {
		if t.Record.ID != recordID {
			return true
		}
		rec := t.Record
		found = &rec
		return false
	})
	if err != nil {
		return nil, false, err
	}
	return found, found != nil, nil
}

// Info describes the cached corpus of database
func (s *Service) Info(ctx context.Context, database streamlite.Database) (*cache.Info, bool, error) {
	return s.cache.Info(ctx, Source(database), 0)
}

// each walks every cached term of src under a read lease until fn returns
// false
func (s *Service) each(ctx context.Context, src db.SourceRef, fn func(*search.ReferenceTerm) bool) error {
	release := s.cache.RLock(src)
	defer release()

	count, err := s.cache.Count(ctx, src)
	if err != nil {
		return err
	}
	for index := 1; index <= count; index++ {
		terms, ok, err := s.cache.Get(ctx, src, index)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		for i := range terms {
			if !fn(&terms[i]) {
				return nil
			}
		}
	}
	return nil
}

func (s *Service) message(id, title, subtitle string) {
	if id != "" {
		s.registry.SetMessage(id, title, subtitle)
	}
}

func (s *Service) progress(id string, p float64) {
	if id != "" {
		s.registry.SetProgress(id, p)
	}
}

// chunkWriter splits streamed terms into fixed size cache chunks
type chunkWriter struct {
	ctx   context.Context
	cache *cache.TermCache
	src   db.SourceRef
	size  int

	buf     []search.ReferenceTerm
	index   int
	written int
}

func (w *chunkWriter) add(terms []search.ReferenceTerm) error {
	w.buf = append(w.buf, terms...)
	for len(w.buf) >= w.size {
		if err := w.put(w.buf[:w.size]); err != nil {
			return err
		}
		w.buf = append([]search.ReferenceTerm(nil), w.buf[w.size:]...)
	}
	return nil
}

func (w *chunkWriter) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	err := w.put(w.buf)
	w.buf = nil
	return err
}

func (w *chunkWriter) put(terms []search.ReferenceTerm) error {
	w.index++
	start := w.written + 1
	end := w.written + len(terms)
	if err := w.cache.Put(w.ctx, w.src, w.index, terms, start, end); err != nil {
		return err
	}
	w.written = end
	return nil
}
