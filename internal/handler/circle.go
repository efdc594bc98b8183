package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prem-prasad1710/ritualos/internal/apperr"
	"github.com/prem-prasad1710/ritualos/internal/auth"
	"github.com/prem-prasad1710/ritualos/internal/invite"
	"github.com/prem-prasad1710/ritualos/internal/metrics"
	"github.com/prem-prasad1710/ritualos/internal/model"
	"github.com/prem-prasad1710/ritualos/internal/store"
	"github.com/prem-prasad1710/ritualos/internal/websocket"
)

type CircleHandler struct {
	base
	circleStore *store.CircleStore
	hub         *websocket.Hub
	metrics     *metrics.Metrics
}

func NewCircleHandler(cs *store.CircleStore, hub *websocket.Hub, m *metrics.Metrics, logger *slog.Logger, now Clock) *CircleHandler {
	return &CircleHandler{base: newBase(logger, now), circleStore: cs, hub: hub, metrics: m}
}

type circleRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type joinCircleRequest struct {
	InviteCode string `json:"inviteCode" validate:"required"`
}

func (h *CircleHandler) broadcast(c *model.Circle, msg websocket.Message) {
	if h.hub == nil || c == nil {
		return
	}
	ids := make([]int64, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.UserID
	}
	h.hub.BroadcastTo(ids, msg)
}

func (h *CircleHandler) List(w http.ResponseWriter, r *http.Request) {
	circles, err := h.circleStore.ListForUser(auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if circles == nil {
		circles = []model.Circle{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"circles": circles})
}

func (h *CircleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req circleRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, unlocked, err := h.circleStore.Create(auth.UserID(r.Context()), strings.TrimSpace(req.Name), req.Description, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.countJoin(unlocked)
	writeJSON(w, http.StatusCreated, map[string]any{"circle": c})
}

func (h *CircleHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinCircleRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	code := invite.Normalize(req.InviteCode)
	if !invite.Valid(code) {
		h.writeError(w, r, apperr.Validation("Invalid invite code"))
		return
	}

	userID := auth.UserID(r.Context())
	c, unlocked, err := h.circleStore.Join(userID, code, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if c == nil {
		h.writeError(w, r, apperr.NotFound("Circle not found"))
		return
	}

	h.countJoin(unlocked)
	h.broadcast(c, websocket.NewMessage("circle_member", "joined", c.ID, map[string]any{"userId": userID}))
	writeJSON(w, http.StatusOK, map[string]any{"circle": c})
}

func (h *CircleHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	userID := auth.UserID(r.Context())
	if err := h.circleStore.Leave(userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	if c, err := h.circleStore.GetByID(id); err == nil {
		h.broadcast(c, websocket.NewMessage("circle_member", "left", id, map[string]any{"userId": userID}))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CircleHandler) countJoin(unlocked []model.Achievement) {
	h.metrics.CirclesJoined.Inc()
	for _, a := range unlocked {
		h.metrics.AchievementsUnlocked.WithLabelValues(a.Category).Inc()
	}
}
