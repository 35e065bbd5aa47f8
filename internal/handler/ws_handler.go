package handler

import (
	"net/http"

	"notes-server/internal/config"
	"notes-server/internal/middleware"
	"notes-server/internal/websocket"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type WebSocketHandler struct {
	manager  *websocket.Manager
	upgrader ws.Upgrader
}

func NewWebSocketHandler(manager *websocket.Manager, cfg config.WebSocketConfig) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		upgrader: ws.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection upgrades an authenticated request and attaches the
// connection to the owner's note event stream.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request, identity middleware.Identity) {
	logger := zerolog.Ctx(r.Context())

	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		deviceID = "default"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(uuid.New().String(), identity.UserID, deviceID, conn, h.manager)
	if !h.manager.Add(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
