package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prem-prasad1710/ritualos/internal/apperr"
	"github.com/prem-prasad1710/ritualos/internal/auth"
	"github.com/prem-prasad1710/ritualos/internal/model"
	"github.com/prem-prasad1710/ritualos/internal/store"
)

type RitualHandler struct {
	base
	ritualStore *store.RitualStore
}

func NewRitualHandler(rs *store.RitualStore, logger *slog.Logger) *RitualHandler {
	return &RitualHandler{base: newBase(logger, nil), ritualStore: rs}
}

type ritualRequest struct {
	Name            string  `json:"name" validate:"required,max=100"`
	Description     string  `json:"description" validate:"max=500"`
	Category        string  `json:"category" validate:"required,max=50"`
	DurationMinutes int     `json:"durationMinutes" validate:"gte=1,lte=240"`
	MoodTag         *string `json:"moodTag" validate:"omitempty,max=30"`
}

func (req *ritualRequest) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.MoodTag != nil && strings.TrimSpace(*req.MoodTag) == "" {
		req.MoodTag = nil
	}
}

func (h *RitualHandler) List(w http.ResponseWriter, r *http.Request) {
	rituals, err := h.ritualStore.List(auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rituals == nil {
		rituals = []model.Ritual{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rituals": rituals})
}

func (h *RitualHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ritualRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.normalize()

	ritual, err := h.ritualStore.Create(auth.UserID(r.Context()), req.Name, req.Description, req.Category, req.DurationMinutes, req.MoodTag)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ritual": ritual})
}

func (h *RitualHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	userID := auth.UserID(r.Context())

	existing, err := h.ritualStore.GetByID(userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if existing == nil {
		h.writeError(w, r, apperr.NotFound("Ritual not found"))
		return
	}

	var req ritualRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.normalize()

	ritual, err := h.ritualStore.Update(userID, id, req.Name, req.Description, req.Category, req.DurationMinutes, req.MoodTag)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ritual": ritual})
}

func (h *RitualHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	userID := auth.UserID(r.Context())

	existing, err := h.ritualStore.GetByID(userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if existing == nil {
		h.writeError(w, r, apperr.NotFound("Ritual not found"))
		return
	}

	if err := h.ritualStore.Delete(userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
