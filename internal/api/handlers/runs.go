package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/store"
	"github.com/wonny/qpcr/pkg/logger"
	"github.com/wonny/qpcr/pkg/redis"
)

// RunsHandler serves persisted analysis runs
type RunsHandler struct {
	runRepo contracts.RunRepository
	cache   contracts.ResultCache // optional
	logger  *logger.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(runRepo contracts.RunRepository, cache contracts.ResultCache, log *logger.Logger) *RunsHandler {
	return &RunsHandler{
		runRepo: runRepo,
		cache:   cache,
		logger:  log,
	}
}

// RunsResponse represents the run list response
type RunsResponse struct {
	Count int                    `json:"count"`
	Runs  []contracts.RunSummary `json:"runs"`
}

// ListRuns returns the most recent runs
// GET /api/runs?limit=20
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			respondError(w, http.StatusBadRequest, "Invalid limit (1-500)")
			return
		}
		limit = n
	}

	key := redis.RunListKey(limit)
	var cached RunsResponse
	if h.cache != nil {
		if found, err := h.cache.Get(ctx, key, &cached); err == nil && found {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	runs, err := h.runRepo.ListRuns(ctx, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}
	if runs == nil {
		runs = make([]contracts.RunSummary, 0)
	}

	resp := RunsResponse{Count: len(runs), Runs: runs}
	if h.cache != nil {
		if err := h.cache.Set(ctx, key, resp, redis.TTLShort); err != nil {
			h.logger.WithError(err).Warn("Failed to cache run list")
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetRun returns one run with all of its result tables
// GET /api/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		respondError(w, http.StatusBadRequest, "Invalid run id")
		return
	}

	key := redis.RunKey(id)
	var cached contracts.Run
	if h.cache != nil {
		if found, err := h.cache.Get(ctx, key, &cached); err == nil && found {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	run, err := h.runRepo.GetRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", id).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	// 저장된 실행은 불변
	if h.cache != nil {
		if err := h.cache.Set(ctx, key, run, redis.TTLLong); err != nil {
			h.logger.WithError(err).Warn("Failed to cache run")
		}
	}
	respondJSON(w, http.StatusOK, run)
}
