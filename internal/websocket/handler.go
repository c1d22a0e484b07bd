package websocket

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS возвращает обработчик GET /ws.
func ServeWS(hub *Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(hub, conn, uuid.NewString(), logger)
		if err := hub.Register(client); err != nil {
			logger.Debug("viewer rejected", zap.String("client", client.ID()), zap.Error(err))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
