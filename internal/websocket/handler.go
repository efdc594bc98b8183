package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/prem-prasad1710/ritualos/internal/auth"
)

// HandleWebSocket upgrades authenticated requests and runs them as Hub
// clients. originPatterns lists the cross-origin hosts allowed to connect;
// same-origin requests are always accepted.
func HandleWebSocket(hub *Hub, logger *slog.Logger, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			logger.Warn("websocket accept", "error", err, "user_id", userID)
			return
		}

		client := NewClient(hub, conn, userID)
		client.Run(r.Context())
	}
}
