package ws

import (
	"context"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/games"
	"go.uber.org/zap"
	"net/http"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Serve upgrades the request to a websocket connection for the given
// authenticated captain and registers the client at the Hub. The passed context
// is used in order to stop the read-pump.
func Serve(ctx context.Context, hub *Hub, w http.ResponseWriter, r *http.Request, captain games.Captain) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already responded.
		errors.Log(hub.logger, errors.Error{
			Code:    errors.ErrBadRequest,
			Kind:    errors.KindUnexpected,
			Err:     err,
			Message: "upgrade connection",
		})
		return
	}
	id := uuid.New()
	client := &Client{
		ID:         id,
		Captain:    captain,
		Send:       make(chan []byte, 256),
		Receive:    make(chan []byte, 256),
		logger:     hub.logger.With(zap.String("client_id", id.String())),
		hub:        hub,
		connection: conn,
	}
	// Register.
	select {
	case <-ctx.Done():
		_ = conn.Close()
		return
	case hub.register <- client:
	}
	// Power the pumps.
	go client.writePump()
	go client.readPump(ctx)
}
