package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dsjohal14/synfinder/internal/libs/jobs"
)

// HandleDatabases lists the configured databases without their auth tokens
func (h *Handler) HandleDatabases(w http.ResponseWriter, _ *http.Request) {
	dbs := make([]any, len(h.cfg.Databases))
	for i, db := range h.cfg.Databases {
		dbs[i] = db.Public()
	}
	writeSuccess(w, dbs)
}

// HandleJob reports the status of a job. A complete job returns its results
// when ?results=true and an empty body otherwise.
func (h *Handler) HandleJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	withResults := r.URL.Query().Get("results") == "true"

	job, ok := h.registry.Snapshot(id)
	if !ok {
		writeJSON(w, http.StatusAccepted, PendingResponse{
			Status: jobs.StatusRemoved,
			Job:    JobState{ID: id},
		})
		return
	}

	if job.Status != jobs.StatusComplete {
		writeJSON(w, http.StatusAccepted, PendingResponse{
			Status: job.Status,
			Job: JobState{
				ID:       id,
				Message:  job.Message,
				Progress: job.Progress,
			},
		})
		return
	}

	if job.Err != nil {
		writeError(w, statusFor(job.Err), job.Err.Error())
		return
	}

	if !withResults {
		writeSuccess(w, struct{}{})
		return
	}
	writeSuccess(w, job.Results)
}
