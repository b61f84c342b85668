// Package handler provides HTTP handlers for the read-only status API.
// Handlers query storage directly — no separate service layer, the same
// shape the teacher's Postgres-backed handlers use.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sim-dynasty/season-cycle-engine/internal/api/respond"
	"github.com/sim-dynasty/season-cycle-engine/internal/dynasty"
	"github.com/sim-dynasty/season-cycle-engine/internal/eventstore"
	"github.com/sim-dynasty/season-cycle-engine/internal/storage"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	db *storage.DB
}

// New creates a Handler with shared dependencies.
func New(db *storage.DB) *Handler {
	return &Handler{db: db}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns the service name and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, map[string]interface{}{
		"name":   "season-cycle-engine",
		"status": "running",
		"docs":   "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		respond.WriteJSONStatus(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSON(w, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type dynastySummary struct {
	DynastyID        string `json:"dynasty_id"`
	Season           int    `json:"season"`
	CurrentDate      string `json:"current_date"`
	CurrentPhase     string `json:"current_phase"`
	CurrentWeek      *int   `json:"current_week,omitempty"`
	CurrentDraftPick int    `json:"current_draft_pick"`
	DraftInProgress  bool   `json:"draft_in_progress"`
}

// GetSeason returns the latest persisted dynasty state.
// @Summary Get dynasty season state
// @Tags season
// @Produce json
// @Param dynasty_id path string true "Dynasty ID"
// @Success 200 {object} dynastySummary
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/season/{dynasty_id} [get]
func (h *Handler) GetSeason(w http.ResponseWriter, r *http.Request) {
	dynastyID := chi.URLParam(r, "dynasty_id")
	state, err := dynasty.GetLatest(r.Context(), h.db, dynastyID)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}
	if state == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no dynasty state for "+dynastyID)
		return
	}
	respond.WriteJSON(w, dynastySummary{
		DynastyID: state.DynastyID, Season: state.Season, CurrentDate: state.CurrentDate.String(),
		CurrentPhase: state.CurrentPhase.String(), CurrentWeek: state.CurrentWeek,
		CurrentDraftPick: state.CurrentDraftPick, DraftInProgress: state.DraftInProgress,
	})
}

// GetSeasonEvents lists recent events for a dynasty, newest first by
// timestamp (the order eventstore.GetByDynasty returns).
// @Summary List dynasty events
// @Tags season
// @Produce json
// @Param dynasty_id path string true "Dynasty ID"
// @Param limit query int false "Max events to return (default 100)"
// @Success 200 {array} eventstore.Event
// @Router /api/v1/season/{dynasty_id}/events [get]
func (h *Handler) GetSeasonEvents(w http.ResponseWriter, r *http.Request) {
	dynastyID := chi.URLParam(r, "dynasty_id")
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := eventstore.GetByDynasty(r.Context(), h.db, dynastyID, nil, limit)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}
	respond.WriteJSON(w, events)
}
