package handler

import (
	"log/slog"
	"net/http"

	"github.com/prem-prasad1710/ritualos/internal/apperr"
	"github.com/prem-prasad1710/ritualos/internal/auth"
	"github.com/prem-prasad1710/ritualos/internal/metrics"
	"github.com/prem-prasad1710/ritualos/internal/model"
	"github.com/prem-prasad1710/ritualos/internal/store"
	"github.com/prem-prasad1710/ritualos/internal/websocket"
)

type SessionHandler struct {
	base
	sessionStore *store.SessionStore
	circleStore  *store.CircleStore
	hub          *websocket.Hub
	metrics      *metrics.Metrics
}

func NewSessionHandler(ss *store.SessionStore, cs *store.CircleStore, hub *websocket.Hub, m *metrics.Metrics, logger *slog.Logger, now Clock) *SessionHandler {
	return &SessionHandler{base: newBase(logger, now), sessionStore: ss, circleStore: cs, hub: hub, metrics: m}
}

type startSessionRequest struct {
	LoopID     *int64 `json:"loopId" validate:"omitempty,gt=0"`
	RitualID   *int64 `json:"ritualId" validate:"omitempty,gt=0"`
	MoodBefore string `json:"moodBefore" validate:"max=30"`
}

type completeSessionRequest struct {
	MoodAfter string `json:"moodAfter" validate:"max=30"`
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionStore.List(auth.UserID(r.Context()), queryInt(r, "limit", 50))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []model.RitualSession{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if (req.LoopID == nil) == (req.RitualID == nil) {
		h.writeError(w, r, apperr.Validation("Exactly one of loopId or ritualId is required"))
		return
	}

	session, err := h.sessionStore.Start(auth.UserID(r.Context()), req.LoopID, req.RitualID, req.MoodBefore, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": session})
}

func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req completeSessionRequest
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	userID := auth.UserID(r.Context())
	c, err := h.sessionStore.Complete(userID, id, req.MoodAfter, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if c == nil {
		h.writeError(w, r, apperr.NotFound("Session not found"))
		return
	}

	h.metrics.SessionsCompleted.Inc()
	for _, a := range c.Unlocked {
		h.metrics.AchievementsUnlocked.WithLabelValues(a.Category).Inc()
	}
	h.notifyCircles(r, userID, websocket.NewMessage("session", "completed", id, map[string]any{
		"userId":      userID,
		"name":        c.User.Name,
		"streakCount": c.User.StreakCount,
	}))

	writeJSON(w, http.StatusOK, map[string]any{
		"session":      c.Session,
		"pointsEarned": c.PointsEarned,
		"unlocked":     c.Unlocked,
		"user":         c.User,
	})
}

// notifyCircles pushes msg to everyone sharing a circle with userID.
func (h *SessionHandler) notifyCircles(r *http.Request, userID int64, msg websocket.Message) {
	if h.hub == nil {
		return
	}
	mates, err := h.circleStore.MateIDs(userID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "list circle mates", "user_id", userID, "error", err)
		return
	}
	h.hub.BroadcastTo(mates, msg)
}
