package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/match-archive/middleware"
	"github.com/Dosada05/match-archive/realtime"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub       *realtime.Hub
	jwtSecret []byte
	upgrader  websocket.Upgrader
}

// NewWebSocketHandler: пустой allowedOrigins или "*" разрешает любой Origin.
func NewWebSocketHandler(hub *realtime.Hub, jwtSecret string, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		jwtSecret: []byte(jwtSecret),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// ServeNotifications подключает клиента к личной комнате.
// Браузер не умеет слать заголовки при апгрейде, поэтому токен приходит в ?token=.
func (h *WebSocketHandler) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		unauthorizedResponse(w, r, "missing token")
		return
	}
	claims, err := middleware.ParseToken(h.jwtSecret, token)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	userID, err := middleware.UserIDFromClaims(claims)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой.
		slog.Warn("failed to upgrade websocket connection", "user_id", userID, "error", err)
		return
	}

	h.hub.Serve(conn, realtime.UserRoom(userID))
}
