package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prem-prasad1710/ritualos/internal/apperr"
	"github.com/prem-prasad1710/ritualos/internal/auth"
	"github.com/prem-prasad1710/ritualos/internal/challenge"
	"github.com/prem-prasad1710/ritualos/internal/metrics"
	"github.com/prem-prasad1710/ritualos/internal/model"
	"github.com/prem-prasad1710/ritualos/internal/store"
)

type ChallengeHandler struct {
	base
	challengeStore *store.ChallengeStore
	metrics        *metrics.Metrics
}

func NewChallengeHandler(cs *store.ChallengeStore, m *metrics.Metrics, logger *slog.Logger, now Clock) *ChallengeHandler {
	return &ChallengeHandler{base: newBase(logger, now), challengeStore: cs, metrics: m}
}

type challengeRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Duration    int    `json:"duration" validate:"gte=1,lte=365"`
	Points      int    `json:"points" validate:"gte=0,lte=10000"`
	Category    string `json:"category" validate:"max=50"`
}

type challengeIDRequest struct {
	ChallengeID int64 `json:"challengeId" validate:"required,gt=0"`
}

func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	challenges, err := h.challengeStore.ListForUser(auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if challenges == nil {
		challenges = []model.ChallengeWithProgress{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"challenges": challenges})
}

func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.challengeStore.Create(strings.TrimSpace(req.Title), req.Description, req.Duration, req.Points, strings.TrimSpace(req.Category))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"challenge": c})
}

func (h *ChallengeHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req challengeIDRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	uc, err := h.challengeStore.Join(auth.UserID(r.Context()), req.ChallengeID, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if uc == nil {
		h.writeError(w, r, apperr.NotFound("Challenge not found"))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"userChallenge": uc})
}

func (h *ChallengeHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req challengeIDRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.challengeStore.CheckIn(auth.UserID(r.Context()), req.ChallengeID, h.now())
	if err != nil {
		if errors.Is(err, challenge.ErrAlreadyCheckedIn) {
			h.metrics.CheckIns.WithLabelValues("duplicate").Inc()
		}
		h.writeError(w, r, err)
		return
	}
	if res == nil {
		h.writeError(w, r, apperr.NotFound("Challenge not found"))
		return
	}

	outcome := "recorded"
	if res.Completed {
		outcome = "completed"
	}
	h.metrics.CheckIns.WithLabelValues(outcome).Inc()

	writeJSON(w, http.StatusOK, map[string]any{
		"userChallenge": res.UserChallenge,
		"completed":     res.Completed,
		"pointsEarned":  res.PointsEarned,
	})
}
