package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/auth"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/extract"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/load"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/lock"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/normalize"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/pipeline"
)

// Runner executes pipeline stages.
type Runner interface {
	Extract(ctx context.Context, runID, playlistRef string) (*extract.Result, error)
	Normalize(ctx context.Context, runID string) (*normalize.Result, error)
	Load(ctx context.Context, runID string) (*load.Result, error)
}

// Handlers contains HTTP handlers for the trigger API.
type Handlers struct {
	runner   Runner
	newRunID func() string
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(runner Runner, logger *zap.Logger) *Handlers {
	return &Handlers{
		runner:   runner,
		newRunID: pipeline.NewRunID,
		logger:   logger,
	}
}

// runResponse is the body of a successful run.
type runResponse struct {
	RunID  string `json:"run_id"`
	Result any    `json:"result"`
}

type errorResponse struct {
	RunID string `json:"run_id,omitempty"`
	Error string `json:"error"`
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Extract handles POST /runs/extract. The optional playlist query
// parameter overrides the configured playlist.
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	runID := h.newRunID()
	result, err := h.runner.Extract(r.Context(), runID, r.URL.Query().Get("playlist"))
	h.respond(w, runID, result, err)
}

// Normalize handles POST /runs/normalize.
func (h *Handlers) Normalize(w http.ResponseWriter, r *http.Request) {
	runID := h.newRunID()
	result, err := h.runner.Normalize(r.Context(), runID)
	h.respond(w, runID, result, err)
}

// Load handles POST /runs/load.
func (h *Handlers) Load(w http.ResponseWriter, r *http.Request) {
	runID := h.newRunID()
	result, err := h.runner.Load(r.Context(), runID)
	h.respond(w, runID, result, err)
}

func (h *Handlers) respond(w http.ResponseWriter, runID string, result any, err error) {
	if err != nil {
		h.writeJSON(w, statusFor(err), errorResponse{RunID: runID, Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, runResponse{RunID: runID, Result: result})
}

// statusFor maps run errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, lock.ErrNotAcquired):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrNoWarehouse), errors.Is(err, auth.ErrMissingCredentials):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}
