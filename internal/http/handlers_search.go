package httpapi

import (
	"encoding/json"
	"net/http"
)

// HandleSearch validates a search request and queues it as a job
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid search request")
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	db, ok := h.resolveDatabase(req.Database)
	if !ok {
		writeError(w, http.StatusBadRequest, "database address or known database name is required")
		return
	}

	cfg := h.searchConfig(req.Config)
	id, err := h.svc.StartSearch(req.Terms, db, cfg, req.Force)
	if err != nil {
		h.logger.Warn().Err(err).Msg("search rejected")
		writeError(w, statusFor(err), err.Error())
		return
	}

	h.logger.Info().
		Str("job_id", id).
		Str("address", db.Address).
		Int("terms", len(req.Terms)).
		Strs("routines", cfg.Routines).
		Msg("search queued")

	writeQueued(w, id)
}

// HandleCorpusSearch queues a search of a database against itself
func (h *Handler) HandleCorpusSearch(w http.ResponseWriter, r *http.Request) {
	var req CorpusSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid corpus search request")
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	db, ok := h.resolveDatabase(req.Database)
	if !ok {
		writeError(w, http.StatusBadRequest, "database address or known database name is required")
		return
	}

	id, err := h.svc.StartCorpusSearch(db, h.searchConfig(req.Config))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	h.logger.Info().Str("job_id", id).Str("address", db.Address).Msg("corpus search queued")
	writeQueued(w, id)
}
