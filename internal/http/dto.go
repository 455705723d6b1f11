// Package httpapi provides HTTP handlers and data transfer objects for the
// synfinder API.
package httpapi

import (
	"time"

	"github.com/dsjohal14/synfinder/internal/libs/jobs"
	"github.com/dsjohal14/synfinder/internal/scope/search"
	"github.com/dsjohal14/synfinder/internal/streamlite"
)

// Response statuses
const (
	StatusSuccess = "success"
	StatusQueued  = "queued"
	StatusError   = "error"
)

// SuccessResponse wraps a completed response body
type SuccessResponse struct {
	Status   string `json:"status"`
	Response any    `json:"response"`
}

// QueuedResponse acknowledges a job that was queued
type QueuedResponse struct {
	Status string   `json:"status"`
	Job    JobBrief `json:"job"`
}

// JobBrief identifies a job
type JobBrief struct {
	ID string `json:"id"`
}

// PendingResponse reports a job that has not completed
type PendingResponse struct {
	Status jobs.Status `json:"status"`
	Job    JobState    `json:"job"`
}

// JobState is the pollable state of an incomplete job
type JobState struct {
	ID       string        `json:"id"`
	Message  *jobs.Message `json:"message,omitempty"`
	Progress *float64      `json:"progress,omitempty"`
}

// ErrorResponse represents API error response
type ErrorResponse struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

// ErrorDetail describes an API error
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Jobs      int    `json:"jobs"`
	Databases int    `json:"databases"`
}

// SearchRequest queues a search of terms against a database. An omitted
// config uses the server defaults.
type SearchRequest struct {
	Terms    []search.QueryTerm  `json:"terms"`
	Database streamlite.Database `json:"database"`
	Config   *search.Config      `json:"config,omitempty"`
	Force    bool                `json:"force,omitempty"`
}

// CorpusSearchRequest queues a search of a database against itself
type CorpusSearchRequest struct {
	Database streamlite.Database `json:"database"`
	Config   *search.Config      `json:"config,omitempty"`
}

// CacheInfoResponse describes a cached corpus
type CacheInfoResponse struct {
	Saved  time.Time `json:"saved"`
	Chunks int       `json:"chunks"`
	Terms  int       `json:"terms"`
}
