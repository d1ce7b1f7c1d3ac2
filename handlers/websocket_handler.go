package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/fantaleague/league-system/notifications"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin,
		// чтобы разрешать подключения только с доверенных доменов.
		return true
	},
}

type WebSocketHandler struct {
	hub *notifications.Hub
}

func NewWebSocketHandler(hub *notifications.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeWs обрабатывает WebSocket подключения к комнате лиги.
// Клиент подключается к /ws/leagues/{leagueID} и получает события
// движка перемещений (предложения, аренды, перемещения по составам).
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	leagueIDStr := chi.URLParam(r, "leagueID")
	leagueID, err := strconv.Atoi(leagueIDStr)
	if err != nil || leagueID <= 0 {
		http.Error(w, "invalid leagueID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection for league %d: %v", leagueID, err)
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту, здесь просто логируем.
		return
	}

	client := &notifications.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: notifications.LeagueRoom(leagueID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
