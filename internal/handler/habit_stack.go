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

type HabitStackHandler struct {
	base
	stackStore *store.HabitStackStore
}

func NewHabitStackHandler(hs *store.HabitStackStore, logger *slog.Logger) *HabitStackHandler {
	return &HabitStackHandler{base: newBase(logger, nil), stackStore: hs}
}

type triggerRequest struct {
	Type  string `json:"type" validate:"required,oneof=time location event after_ritual"`
	Value string `json:"value" validate:"required,max=100,excludesall=]"`
}

type stackRequest struct {
	Name        string         `json:"name" validate:"required,max=100"`
	Description string         `json:"description" validate:"max=500"`
	RitualIDs   []int64        `json:"ritualIds" validate:"required,min=1,max=20,dive,gt=0"`
	Trigger     triggerRequest `json:"trigger"`
	IsActive    *bool          `json:"isActive"`
}

type stackUpdateRequest struct {
	Description string         `json:"description" validate:"max=500"`
	Trigger     triggerRequest `json:"trigger"`
	IsActive    *bool          `json:"isActive"`
}

func (t triggerRequest) model() model.HabitTrigger {
	return model.HabitTrigger{Type: t.Type, Value: strings.TrimSpace(t.Value)}
}

func activeOrDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func (h *HabitStackHandler) List(w http.ResponseWriter, r *http.Request) {
	stacks, err := h.stackStore.List(auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if stacks == nil {
		stacks = []model.HabitStack{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"stacks": stacks})
}

func (h *HabitStackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req stackRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	stack, err := h.stackStore.Create(auth.UserID(r.Context()), strings.TrimSpace(req.Name),
		strings.TrimSpace(req.Description), req.RitualIDs, req.Trigger.model(), activeOrDefault(req.IsActive, true))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"stack": stack})
}

func (h *HabitStackHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	userID := auth.UserID(r.Context())

	existing, err := h.stackStore.GetByID(userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if existing == nil {
		h.writeError(w, r, apperr.NotFound("Habit stack not found"))
		return
	}

	var req stackUpdateRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	stack, err := h.stackStore.Update(userID, id, strings.TrimSpace(req.Description), req.Trigger.model(),
		activeOrDefault(req.IsActive, existing.IsActive))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stack": stack})
}

func (h *HabitStackHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	stack, err := h.stackStore.Toggle(auth.UserID(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if stack == nil {
		h.writeError(w, r, apperr.NotFound("Habit stack not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stack": stack})
}

func (h *HabitStackHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	userID := auth.UserID(r.Context())

	existing, err := h.stackStore.GetByID(userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if existing == nil {
		h.writeError(w, r, apperr.NotFound("Habit stack not found"))
		return
	}

	if err := h.stackStore.Delete(userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
