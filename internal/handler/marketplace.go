package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prem-prasad1710/ritualos/internal/apperr"
	"github.com/prem-prasad1710/ritualos/internal/auth"
	"github.com/prem-prasad1710/ritualos/internal/metrics"
	"github.com/prem-prasad1710/ritualos/internal/model"
	"github.com/prem-prasad1710/ritualos/internal/store"
	"github.com/prem-prasad1710/ritualos/internal/websocket"
)

type MarketplaceHandler struct {
	base
	communityStore *store.CommunityStore
	hub            *websocket.Hub
	metrics        *metrics.Metrics
}

func NewMarketplaceHandler(cs *store.CommunityStore, hub *websocket.Hub, m *metrics.Metrics, logger *slog.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{base: newBase(logger, nil), communityStore: cs, hub: hub, metrics: m}
}

type communityRitualRequest struct {
	Title       string                `json:"title" validate:"required,max=100"`
	Description string                `json:"description" validate:"max=1000"`
	Category    string                `json:"category" validate:"required,max=50"`
	Steps       []model.CommunityStep `json:"steps" validate:"required,min=1,max=20,dive"`
}

type rateRequest struct {
	Rating int `json:"rating" validate:"gte=1,lte=5"`
}

func (h *MarketplaceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort := q.Get("sort")
	switch sort {
	case "", store.SortPopular, store.SortRating, store.SortNewest:
	default:
		h.writeError(w, r, apperr.Validation("sort must be one of: popular, rating, newest"))
		return
	}

	rituals, err := h.communityStore.List(strings.TrimSpace(q.Get("category")), sort)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rituals == nil {
		rituals = []model.CommunityRitual{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rituals": rituals})
}

func (h *MarketplaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req communityRitualRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	for i := range req.Steps {
		req.Steps[i].Name = strings.TrimSpace(req.Steps[i].Name)
	}

	cr, err := h.communityStore.Create(auth.UserID(r.Context()), strings.TrimSpace(req.Title), req.Description,
		strings.TrimSpace(req.Category), req.Steps)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.metrics.RitualsShared.Inc()
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("community_ritual", "created", cr.ID, map[string]any{"category": cr.Category}))
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ritual": cr})
}

func (h *MarketplaceHandler) Use(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	loop, err := h.communityStore.Use(auth.UserID(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if loop == nil {
		h.writeError(w, r, apperr.NotFound("Community ritual not found"))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"loop": loop})
}

func (h *MarketplaceHandler) Rate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req rateRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	cr, err := h.communityStore.Rate(auth.UserID(r.Context()), id, req.Rating)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if cr == nil {
		h.writeError(w, r, apperr.NotFound("Community ritual not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ritual": cr})
}
