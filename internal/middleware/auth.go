package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/prem-prasad1710/ritualos/internal/apperr"
	"github.com/prem-prasad1710/ritualos/internal/auth"
	"github.com/prem-prasad1710/ritualos/internal/store"
)

// RequireAuth validates the bearer token and populates AuthContext. Tokens
// for users that no longer exist are rejected. Websocket upgrades may pass
// the token as the access_token query parameter since browsers cannot set
// headers on them.
func RequireAuth(issuer *auth.TokenIssuer, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			ac, err := issuer.Verify(token)
			if err != nil {
				unauthorized(w)
				return
			}

			u, err := userStore.GetByID(ac.UserID)
			if err != nil || u == nil {
				unauthorized(w)
				return
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, apperr.Unauthorized())
}

func writeError(w http.ResponseWriter, e *apperr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.Status(e.Kind))
	json.NewEncoder(w).Encode(map[string]string{"error": e.Message, "code": string(e.Kind)})
}
