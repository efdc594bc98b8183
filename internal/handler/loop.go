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

type LoopHandler struct {
	base
	loopStore *store.LoopStore
}

func NewLoopHandler(ls *store.LoopStore, logger *slog.Logger) *LoopHandler {
	return &LoopHandler{base: newBase(logger, nil), loopStore: ls}
}

type loopRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=500"`
	RitualIDs   []int64 `json:"ritualIds" validate:"required,min=1,max=20,dive,gt=0"`
}

func (h *LoopHandler) List(w http.ResponseWriter, r *http.Request) {
	loops, err := h.loopStore.List(auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if loops == nil {
		loops = []model.RitualLoop{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"loops": loops})
}

func (h *LoopHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	loop, err := h.loopStore.GetByID(auth.UserID(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if loop == nil {
		h.writeError(w, r, apperr.NotFound("Loop not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"loop": loop})
}

func (h *LoopHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req loopRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	loop, err := h.loopStore.Create(auth.UserID(r.Context()), strings.TrimSpace(req.Name), req.Description, req.RitualIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"loop": loop})
}

func (h *LoopHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	userID := auth.UserID(r.Context())

	existing, err := h.loopStore.GetByID(userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if existing == nil {
		h.writeError(w, r, apperr.NotFound("Loop not found"))
		return
	}

	var req loopRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	loop, err := h.loopStore.Update(userID, id, strings.TrimSpace(req.Name), req.Description, req.RitualIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"loop": loop})
}

func (h *LoopHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	userID := auth.UserID(r.Context())

	existing, err := h.loopStore.GetByID(userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if existing == nil {
		h.writeError(w, r, apperr.NotFound("Loop not found"))
		return
	}

	if err := h.loopStore.Delete(userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
