package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prem-prasad1710/ritualos/internal/auth"
	"github.com/prem-prasad1710/ritualos/internal/insights"
	"github.com/prem-prasad1710/ritualos/internal/model"
	"github.com/prem-prasad1710/ritualos/internal/store"
)

const maxInsightDays = 90

type MoodHandler struct {
	base
	moodStore *store.MoodStore
}

func NewMoodHandler(ms *store.MoodStore, logger *slog.Logger, now Clock) *MoodHandler {
	return &MoodHandler{base: newBase(logger, now), moodStore: ms}
}

type moodRequest struct {
	Mood   string `json:"mood" validate:"required,max=30"`
	Energy int    `json:"energy" validate:"gte=1,lte=5"`
	Note   string `json:"note" validate:"max=1000"`
}

func (h *MoodHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.moodStore.List(auth.UserID(r.Context()), queryInt(r, "limit", 30))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.MoodEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *MoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	entry, err := h.moodStore.Create(auth.UserID(r.Context()), strings.ToLower(strings.TrimSpace(req.Mood)), req.Energy, req.Note, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

// Insights returns chart data for the last ?days= days (default 7).
func (h *MoodHandler) Insights(w http.ResponseWriter, r *http.Request) {
	days := min(queryInt(r, "days", 7), maxInsightDays)
	now := h.now().UTC()
	since := now.AddDate(0, 0, -days)

	entries, err := h.moodStore.ListSince(auth.UserID(r.Context()), since)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": insights.Summarize(entries, days, now)})
}

type JournalHandler struct {
	base
	journalStore *store.JournalStore
}

func NewJournalHandler(js *store.JournalStore, logger *slog.Logger, now Clock) *JournalHandler {
	return &JournalHandler{base: newBase(logger, now), journalStore: js}
}

type journalRequest struct {
	Title   string  `json:"title" validate:"max=200"`
	Content string  `json:"content" validate:"required,max=10000"`
	Mood    *string `json:"mood" validate:"omitempty,max=30"`
}

func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.journalStore.List(auth.UserID(r.Context()), queryInt(r, "limit", 50))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req journalRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		h.writeError(w, r, validationRequired("content"))
		return
	}

	entry, err := h.journalStore.Create(auth.UserID(r.Context()), strings.TrimSpace(req.Title), req.Content, req.Mood, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}
