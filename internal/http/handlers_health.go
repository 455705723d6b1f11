package httpapi

import "net/http"

// HandleHealth returns API health status with job and database counts
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Jobs:      h.registry.Count(),
		Databases: len(h.cfg.Databases),
	}

	h.logger.Debug().Int("jobs", resp.Jobs).Msg("health check")

	writeJSON(w, http.StatusOK, resp)
}
