package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/aircrushin/mindful-moment/internal/progress"
	"github.com/aircrushin/mindful-moment/internal/stats"
	"github.com/aircrushin/mindful-moment/middleware"
)

type ProgressService interface {
	RecordSession(ctx context.Context, userID uuid.UUID, req *progress.RecordRequest) (*progress.RecordResponse, error)
	Stats(ctx context.Context, userID uuid.UUID) (*stats.UserStats, error)
	History(ctx context.Context, userID uuid.UUID, limit int) (*progress.HistoryResponse, error)
}

type ProgressHandler struct {
	progressService ProgressService
	timeout         time.Duration
}

func NewProgressHandler(progressService ProgressService, timeout time.Duration) *ProgressHandler {
	return &ProgressHandler{progressService: progressService, timeout: timeout}
}

// POST /api/v1/progress
func (h *ProgressHandler) Record(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req progress.RecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.progressService.RecordSession(ctx, userID, &req)
	if err != nil {
		handleServiceError(w, "RecordSession", err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// GET /api/v1/progress/stats
func (h *ProgressHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	userStats, err := h.progressService.Stats(ctx, userID)
	if err != nil {
		handleServiceError(w, "GetStats", err)
		return
	}

	respondWithJSON(w, http.StatusOK, userStats)
}

// GET /api/v1/progress?limit=N
func (h *ProgressHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Query parameter 'limit' must be an integer")
			return
		}
		limit = parsed
	}

	history, err := h.progressService.History(ctx, userID, limit)
	if err != nil {
		handleServiceError(w, "GetProgress", err)
		return
	}
	if history.Progress == nil {
		history.Progress = []*progress.Entry{}
	}

	respondWithJSON(w, http.StatusOK, history)
}
