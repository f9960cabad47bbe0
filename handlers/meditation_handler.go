package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aircrushin/mindful-moment/internal/meditation"
)

type MeditationService interface {
	List(ctx context.Context, filter meditation.Filter) ([]*meditation.Meditation, error)
	Get(ctx context.Context, id uuid.UUID) (*meditation.Meditation, error)
	Categories(ctx context.Context) ([]string, error)
	RecordPlay(ctx context.Context, id uuid.UUID) (int, error)
}

type MeditationHandler struct {
	meditationService MeditationService
	timeout           time.Duration
}

func NewMeditationHandler(meditationService MeditationService, timeout time.Duration) *MeditationHandler {
	return &MeditationHandler{meditationService: meditationService, timeout: timeout}
}

// GET /api/v1/meditations?category&duration&featured
func (h *MeditationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	query := r.URL.Query()
	filter := meditation.Filter{
		Category:     strings.TrimSpace(query.Get("category")),
		FeaturedOnly: query.Get("featured") == "true",
	}

	if raw := query.Get("duration"); raw != "" {
		duration, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Query parameter 'duration' must be an integer")
			return
		}
		filter.DurationMinutes = &duration
	}

	meditations, err := h.meditationService.List(ctx, filter)
	if err != nil {
		handleServiceError(w, "ListMeditations", err)
		return
	}
	if meditations == nil {
		meditations = []*meditation.Meditation{}
	}

	respondWithJSON(w, http.StatusOK, meditation.ListResponse{Meditations: meditations})
}

// GET /api/v1/meditations/categories
func (h *MeditationHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.meditationService.Categories(ctx)
	if err != nil {
		handleServiceError(w, "ListCategories", err)
		return
	}
	if categories == nil {
		categories = []string{}
	}

	respondWithJSON(w, http.StatusOK, meditation.CategoriesResponse{Categories: categories})
}

// GET /api/v1/meditations/{id}
func (h *MeditationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := meditationID(w, r)
	if !ok {
		return
	}

	m, err := h.meditationService.Get(ctx, id)
	if err != nil {
		handleServiceError(w, "GetMeditation", err)
		return
	}

	respondWithJSON(w, http.StatusOK, meditation.DetailResponse{Meditation: m})
}

// POST /api/v1/meditations/{id}/play
func (h *MeditationHandler) Play(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := meditationID(w, r)
	if !ok {
		return
	}

	playCount, err := h.meditationService.RecordPlay(ctx, id)
	if err != nil {
		handleServiceError(w, "RecordPlay", err)
		return
	}

	respondWithJSON(w, http.StatusOK, meditation.PlayResponse{
		Message:   "Play count updated",
		PlayCount: playCount,
	})
}

// meditationID answers 404 for ids that cannot name a meditation.
func meditationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Meditation not found")
		return uuid.Nil, false
	}
	return id, true
}
