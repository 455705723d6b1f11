package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dsjohal14/synfinder/internal/libs/config"
	"github.com/dsjohal14/synfinder/internal/libs/jobs"
	"github.com/dsjohal14/synfinder/internal/scope/pipeline"
	"github.com/dsjohal14/synfinder/internal/scope/search"
	"github.com/dsjohal14/synfinder/internal/streamlite"
)

// Handler contains HTTP handlers for the API
type Handler struct {
	svc      *pipeline.Service
	registry *jobs.Registry
	cfg      *config.Config
	logger   zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc *pipeline.Service, registry *jobs.Registry, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	}
}

// Mount registers the API routes on r
func (h *Handler) Mount(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/databases", h.HandleDatabases)
		r.Get("/job/{id}", h.HandleJob)
		r.Get("/cache", h.HandleCacheInfo)
		r.Put("/cache", h.HandleCacheUpdate)
		r.Post("/search", h.HandleSearch)
		r.Post("/search/corpus", h.HandleCorpusSearch)
		r.Get("/record/{id}", h.HandleRecord)
	})
}

// resolveDatabase fills in a database given only by name from the
// configured list
func (h *Handler) resolveDatabase(db streamlite.Database) (streamlite.Database, bool) {
	if db.Address != "" {
		return db, true
	}
	if db.Name == "" {
		return db, false
	}
	return h.cfg.Database(db.Name)
}

// searchConfig returns the request config with unset parts filled in from
// the server defaults. A config without routines or routine options takes
// the default ones, and all term types are searched when none are selected.
func (h *Handler) searchConfig(cfg *search.Config) search.Config {
	d := h.cfg.Search
	if cfg == nil {
		return search.Config{
			IncludeTypes:   search.AllTypes(),
			Routines:       d.Routines,
			CaseSensitive:  d.CaseSensitive,
			RoutineOptions: d.Options(),
		}
	}

	c := *cfg
	if c.IncludeTypes == (search.IncludeTypes{}) {
		c.IncludeTypes = search.AllTypes()
	}
	if len(c.Routines) == 0 {
		c.Routines = d.Routines
	}
	if reflect.ValueOf(c.RoutineOptions).IsZero() {
		c.RoutineOptions = d.Options()
	}
	return c
}

// Helper functions used across all handlers

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, body any) {
	writeJSON(w, http.StatusOK, SuccessResponse{Status: StatusSuccess, Response: body})
}

func writeQueued(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusAccepted, QueuedResponse{Status: StatusQueued, Job: JobBrief{ID: id}})
}

// writeError writes an error response with the given status code
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Status: StatusError,
		Error:  ErrorDetail{Code: status, Message: message},
	})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	if errors.Is(err, search.ErrConfiguration) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
