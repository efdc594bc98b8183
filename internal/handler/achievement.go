package handler

import (
	"log/slog"
	"net/http"

	"github.com/prem-prasad1710/ritualos/internal/auth"
	"github.com/prem-prasad1710/ritualos/internal/store"
)

type AchievementHandler struct {
	base
	achievementStore *store.AchievementStore
}

func NewAchievementHandler(as *store.AchievementStore, logger *slog.Logger) *AchievementHandler {
	return &AchievementHandler{base: newBase(logger, nil), achievementStore: as}
}

func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.achievementStore.ListForUser(auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"achievements": views})
}
