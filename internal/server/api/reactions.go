package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/reactcam/internal/live"
	"github.com/ayusman/reactcam/internal/store"
)

// MaxHistoryLimit caps the limit query parameter of /api/reactions.
const MaxHistoryLimit = 500

// CurrentHandler serves the label currently on screen.
type CurrentHandler struct {
	hub *live.Hub
}

// NewCurrentHandler creates a CurrentHandler reading from hub.
func NewCurrentHandler(hub *live.Hub) *CurrentHandler {
	return &CurrentHandler{hub: hub}
}

type currentResponse struct {
	Label          string `json:"label"`
	Title          string `json:"title"`
	LastDetectedAt string `json:"last_detected_at,omitempty"`
	Hands          int    `json:"hands"`
	Face           bool   `json:"face"`
	Timestamp      int64  `json:"timestamp"`
}

// ServeHTTP handles GET /api/reaction.
func (h *CurrentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	u := h.hub.Latest()
	writeJSON(w, http.StatusOK, currentResponse{
		Label:          u.Label.String(),
		Title:          u.Title,
		LastDetectedAt: formatTime(u.LastDetectedAt),
		Hands:          u.Hands,
		Face:           u.Face,
		Timestamp:      u.Timestamp,
	})
}

// ReactionsHandler serves the reaction history.
type ReactionsHandler struct {
	store *store.Store
}

// NewReactionsHandler creates a ReactionsHandler backed by s.
func NewReactionsHandler(s *store.Store) *ReactionsHandler {
	return &ReactionsHandler{store: s}
}

type reactionResponse struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Title      string `json:"title"`
	StartedAt  string `json:"started_at"`
	EndedAt    string `json:"ended_at,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Active     bool   `json:"active"`
}

type listReactionsResponse struct {
	Reactions []reactionResponse `json:"reactions"`
}

type statResponse struct {
	Label           string `json:"label"`
	Title           string `json:"title"`
	Count           int    `json:"count"`
	TotalDurationMs int64  `json:"total_duration_ms"`
}

type statsResponse struct {
	Stats []statResponse `json:"stats"`
}

func toReactionResponse(rx *store.Reaction) reactionResponse {
	resp := reactionResponse{
		ID:         rx.ID,
		Label:      rx.Label.String(),
		Title:      rx.Label.Title(),
		StartedAt:  formatTime(rx.StartedAt),
		DurationMs: rx.Duration.Milliseconds(),
		Active:     rx.Active(),
	}
	if rx.EndedAt != nil {
		resp.EndedAt = formatTime(*rx.EndedAt)
	}
	return resp
}

// ServeHTTP routes /api/reactions, /api/reactions/stats and /api/reactions/{id}.
func (h *ReactionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/reactions")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		h.list(w, r)
	case "stats":
		h.stats(w, r)
	default:
		h.get(w, r, path)
	}
}

// list handles GET /api/reactions?limit=N.
func (h *ReactionsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxHistoryLimit)
	}

	reactions, err := h.store.Reactions().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reactions")
		return
	}

	response := listReactionsResponse{
		Reactions: make([]reactionResponse, 0, len(reactions)),
	}
	for _, rx := range reactions {
		response.Reactions = append(response.Reactions, toReactionResponse(rx))
	}
	writeJSON(w, http.StatusOK, response)
}

// stats handles GET /api/reactions/stats.
func (h *ReactionsHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Reactions().Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	response := statsResponse{Stats: make([]statResponse, 0, len(stats))}
	for _, s := range stats {
		response.Stats = append(response.Stats, statResponse{
			Label:           s.Label.String(),
			Title:           s.Label.Title(),
			Count:           s.Count,
			TotalDurationMs: s.TotalDuration.Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/reactions/{id}.
func (h *ReactionsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	rx, err := h.store.Reactions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Reaction not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get reaction")
		return
	}
	writeJSON(w, http.StatusOK, toReactionResponse(rx))
}
