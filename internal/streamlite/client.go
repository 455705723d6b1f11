package streamlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dsjohal14/synfinder/internal/scope/search"
)

// EmitFunc receives the terms of each fetched page, in page order
type EmitFunc func(terms []search.ReferenceTerm) error

// ProgressFunc receives the records read so far for a record type
type ProgressFunc func(recordType string, done, total int)

// Result summarises a fetch
type Result struct {
	Records int
	Terms   int
	Partial bool
}

// Client reads reference terms from BrAPI servers
type Client struct {
	http   *http.Client
	logger zerolog.Logger
}

// NewClient creates a client. A nil httpClient uses a client with a one
// minute timeout.
func NewClient(httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Minute}
	}
	return &Client{http: httpClient, logger: logger}
}

// Fetch pages through every record type the database's version supports and
// emits their terms in order. A record type that fails part way, or that the
// version cannot serve, stops on its own: the other types still run and the
// returned error wraps ErrFetch or ErrUnsupportedVersion with the result
// describing what was gathered.
func (c *Client) Fetch(ctx context.Context, db Database, emit EmitFunc, progress ProgressFunc) (Result, error) {
	if db.Address == "" {
		return Result{}, fmt.Errorf("database address is required")
	}
	if progress == nil {
		progress = func(string, int, int) {}
	}

	major := db.Major()
	var limiter *rate.Limiter
	if db.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(db.RequestsPerSecond), 1)
	}

	var (
		res  Result
		errs []error
	)
	for _, rt := range recordTypes {
		parse, ok := rt.parse[major]
		if !ok {
			if major == "" {
				c.logger.Warn().Str("database", db.Address).Str("version", db.Version).Str("type", rt.name).Msg("unsupported version")
				errs = append(errs, fmt.Errorf("%w: %s %q", ErrUnsupportedVersion, rt.name, db.Version))
				res.Partial = true
			}
			continue
		}

		f := &fetch{
			client:   c,
			db:       db,
			rt:       rt,
			parse:    parse,
			limiter:  limiter,
			emit:     emit,
			progress: progress,
		}
		err := f.run(ctx)
		res.Records += f.records
		res.Terms += f.terms
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		c.logger.Error().Err(err).Str("database", db.Address).Str("type", rt.name).Int("records", f.records).Msg("fetch stopped, keeping partial results")
		errs = append(errs, err)
		res.Partial = true
	}

	return res, errors.Join(errs...)
}

// fetch is the state of paging one record type
type fetch struct {
	client   *Client
	db       Database
	rt       recordType
	parse    func(json.RawMessage) ([]search.ReferenceTerm, error)
	limiter  *rate.Limiter
	emit     EmitFunc
	progress ProgressFunc

	total   int
	records int
	terms   int
}

// run fetches page 0 to learn the page count, then the remaining pages in
// windows of call_limit concurrent requests, emitting each window in order
func (f *fetch) run(ctx context.Context) error {
	first, err := f.page(ctx, 0)
	if err != nil {
		return fmt.Errorf("%w: %s page 0: %v", ErrFetch, f.rt.name, err)
	}
	f.total = first.Metadata.Pagination.TotalCount
	if err := f.deliver(first); err != nil {
		return err
	}

	pages := first.Metadata.Pagination.TotalPages
	window := f.db.callLimit()
	for start := 1; start < pages; start += window {
		end := min(start+window, pages)

		results := make([]*page, end-start)
		errs := make([]error, end-start)
		var g errgroup.Group
		g.SetLimit(window)
		for n := start; n < end; n++ {
			g.Go(func() error {
				p, err := f.page(ctx, n)
				results[n-start], errs[n-start] = p, err
				return err
			})
		}
		_ = g.Wait()

		// Emit up to the first failed page so the output stays contiguous
		for i, p := range results {
			if errs[i] != nil {
				return fmt.Errorf("%w: %s page %d: %v", ErrFetch, f.rt.name, start+i, errs[i])
			}
			if err := f.deliver(p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *fetch) deliver(p *page) error {
	var terms []search.ReferenceTerm
	for _, raw := range p.Result.Data {
		t, err := f.parse(raw)
		if err != nil {
			f.client.logger.Warn().Err(err).Str("type", f.rt.name).Msg("skipping record")
			continue
		}
		terms = append(terms, t...)
	}
	f.records += len(p.Result.Data)
	f.terms += len(terms)

	if len(terms) > 0 {
		if err := f.emit(terms); err != nil {
			return fmt.Errorf("failed to store %s terms: %w", f.rt.name, err)
		}
	}
	f.progress(f.rt.name, f.records, max(f.total, f.records))
	return nil
}

func (f *fetch) page(ctx context.Context, n int) (*page, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u, err := url.Parse(strings.TrimRight(f.db.Address, "/") + "/" + f.rt.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid database address: %w", err)
	}
	q := u.Query()
	for k, v := range f.db.Params {
		q.Set(k, v)
	}
	q.Set("page", strconv.Itoa(n))
	q.Set("pageSize", strconv.Itoa(f.db.pageSize()))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.db.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.db.AuthToken)
	}

	resp, err := f.client.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	return &p, nil
}
