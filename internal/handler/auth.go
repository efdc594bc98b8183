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

type AuthHandler struct {
	base
	userStore *store.UserStore
	issuer    *auth.TokenIssuer
}

func NewAuthHandler(us *store.UserStore, issuer *auth.TokenIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{base: newBase(logger, nil), userStore: us, issuer: issuer}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.writeError(w, r, apperr.Internal("failed to register", err))
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name, _, _ = strings.Cut(req.Email, "@")
	}
	u, err := h.userStore.Create(req.Email, name, hash)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		h.logger.Info("login failed", "email", strings.ToLower(req.Email))
		h.writeError(w, r, &apperr.Error{Kind: apperr.KindUnauthorized, Message: "Invalid email or password"})
		return
	}

	h.respondWithToken(w, r, http.StatusOK, u)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, u *model.User) {
	token, err := h.issuer.Issue(u.ID, u.Email)
	if err != nil {
		h.writeError(w, r, apperr.Internal("failed to issue token", err))
		return
	}
	writeJSON(w, status, authResponse{Token: token, User: u})
}

type profileRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	FocusGoal string `json:"focusGoal" validate:"max=200"`
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if u == nil {
		h.writeError(w, r, apperr.Unauthorized())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.userStore.UpdateProfile(auth.UserID(r.Context()), strings.TrimSpace(req.Name), strings.TrimSpace(req.FocusGoal))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}
