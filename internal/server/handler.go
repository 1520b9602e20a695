package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The relay is a development harness; allow all origins.
		return true
	},
}

// Handler upgrades HTTP requests on the team-chat endpoint to relay sessions.
type Handler struct {
	logger *slog.Logger
	hub    *Hub
	relay  *Relay
}

func NewHandler(hub *Hub, relay *Relay, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, hub: hub, relay: relay}
}

// ServeWS handles GET /ws/team-chat?token=<auth>. Session issuance lives with
// the external auth provider; the relay trusts the token shape
// "<userID>[:<username>]" as-is, which is only acceptable for local
// development and tests.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token is required", http.StatusUnauthorized)
		return
	}
	userID, username := parseToken(token)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sess := &session{
		conn:     conn,
		send:     make(chan []byte, 256),
		hub:      h.hub,
		relay:    h.relay,
		userID:   userID,
		username: username,
		rooms:    make(map[string]bool),
	}

	h.hub.register <- sess

	go sess.writePump()
	go sess.readPump()
}

func parseToken(token string) (userID, username string) {
	if i := strings.IndexByte(token, ':'); i > 0 {
		return token[:i], token[i+1:]
	}
	return token, token
}
