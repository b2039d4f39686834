package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/statestore"
)

type handlers struct {
	deps      Dependencies
	startTime time.Time
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
	})
}

type metricsResponse struct {
	RateLimits map[models.LimiterClass]models.RateLimitState `json:"rate_limits"`
	Pools      map[models.PoolName]models.PoolMetrics        `json:"pools"`
}

func (h *handlers) metrics(w http.ResponseWriter, _ *http.Request) {
	resp := metricsResponse{}
	if h.deps.RateLimiter != nil {
		resp.RateLimits = h.deps.RateLimiter.GetAllStats()
	}
	if h.deps.Pools != nil {
		resp.Pools = h.deps.Pools.AllMetrics()
	}
	writeJSON(w, http.StatusOK, resp)
}

type sessionResponse struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func (h *handlers) session(w http.ResponseWriter, r *http.Request) {
	if h.deps.Sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "session store not configured")
		return
	}

	idParam := chi.URLParam(r, "id")
	id, err := models.ParseULID(idParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	row, err := h.deps.Sessions.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, statestore.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "looking up session")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		ID:        row.ID.String(),
		Status:    row.Status,
		StartedAt: row.StartedAt,
		EndedAt:   row.EndedAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
