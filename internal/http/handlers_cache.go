package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/dsjohal14/synfinder/internal/streamlite"
)

// databaseFromQuery reads ?address=... (or ?database=<name>) plus any other
// query params as the database params
func (h *Handler) databaseFromQuery(q url.Values) (streamlite.Database, bool) {
	if name := q.Get("database"); name != "" && q.Get("address") == "" {
		return h.cfg.Database(name)
	}

	db := streamlite.Database{Address: q.Get("address")}
	for key, values := range q {
		if key == "address" || key == "database" || len(values) == 0 {
			continue
		}
		if db.Params == nil {
			db.Params = make(map[string]string)
		}
		db.Params[key] = values[0]
	}
	return db, db.Address != ""
}

// HandleCacheInfo describes the cached corpus of a database
func (h *Handler) HandleCacheInfo(w http.ResponseWriter, r *http.Request) {
	db, ok := h.databaseFromQuery(r.URL.Query())
	if !ok {
		writeError(w, http.StatusBadRequest, "Database address not provided as 'address' query param")
		return
	}

	info, ok, err := h.svc.Info(r.Context(), db)
	if err != nil {
		h.logger.Error().Err(err).Str("address", db.Address).Msg("failed to read cache info")
		writeError(w, http.StatusInternalServerError, "failed to read cache")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Cache not found for address "+db.Address)
		return
	}

	writeSuccess(w, CacheInfoResponse{
		Saved:  info.SavedAt,
		Chunks: info.Chunks,
		Terms:  info.Terms,
	})
}

// HandleCacheUpdate queues a refresh of the database in the request body
func (h *Handler) HandleCacheUpdate(w http.ResponseWriter, r *http.Request) {
	var req streamlite.Database
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid cache request")
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	db, ok := h.resolveDatabase(req)
	if !ok {
		writeError(w, http.StatusBadRequest, "Database address not provided as 'address' in the request body")
		return
	}

	id, err := h.svc.StartRefresh(db)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	h.logger.Info().Str("job_id", id).Str("address", db.Address).Msg("cache update queued")
	writeQueued(w, id)
}

// HandleRecord returns a cached record by id
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	db, ok := h.databaseFromQuery(r.URL.Query())
	if !ok {
		writeError(w, http.StatusBadRequest, "Database address not provided as 'address' query param")
		return
	}

	rec, ok, err := h.svc.Record(r.Context(), db, id)
	if err != nil {
		h.logger.Error().Err(err).Str("record_id", id).Msg("failed to read record")
		writeError(w, http.StatusInternalServerError, "failed to read cache")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Record not found: "+id)
		return
	}
	writeSuccess(w, rec)
}
