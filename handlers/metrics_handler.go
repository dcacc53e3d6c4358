package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"cocktailLogAPI/middleware"
	"cocktailLogAPI/services"
)

type MetricsHandler struct {
	metricsService *services.MetricsService
}

func NewMetricsHandler(metricsService *services.MetricsService) *MetricsHandler {
	return &MetricsHandler{
		metricsService: metricsService,
	}
}

// currentUser maps the authenticated Clerk ID to the internal user ID and writes the
// error response itself when that fails.
func (h *MetricsHandler) currentUser(ctx context.Context, w http.ResponseWriter) (uuid.UUID, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return uuid.Nil, false
	}

	userID, err := h.metricsService.ResolveUser(ctx, clerkID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return uuid.Nil, false
		}
		log.Printf("MetricsHandler: failed to resolve user %s: %v", clerkID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve user")
		return uuid.Nil, false
	}
	return userID, true
}

// GET /user/badges
func (h *MetricsHandler) GetBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, h.metricsService.GetBadges(ctx, userID))
}

// GET /user/badges/highest?limit=3
func (h *MetricsHandler) GetHighestBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "Query parameter 'limit' must be a positive integer")
			return
		}
		limit = n
	}

	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, h.metricsService.GetHighestBadges(ctx, userID, limit))
}

// GET /user/badges/progress
func (h *MetricsHandler) GetBadgeProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, h.metricsService.GetBadgeProgress(ctx, userID))
}

// GET /user/streak
func (h *MetricsHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, h.metricsService.GetStreakSummary(ctx, userID))
}

// GET /user/streak/daily
func (h *MetricsHandler) GetDailyStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"streak": h.metricsService.GetDailyStreak(ctx, userID)})
}

// GET /user/streak/weekly
func (h *MetricsHandler) GetWeeklyStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"streak": h.metricsService.GetWeeklyStreak(ctx, userID)})
}

// GET /user/stats
func (h *MetricsHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := h.currentUser(ctx, w)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, h.metricsService.GetUserStats(ctx, userID))
}
