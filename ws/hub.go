package ws

import (
	"context"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// ClientListener provides methods for accepting new clients and unregister
// events.
type ClientListener interface {
	// AcceptClient is called when a new Client connects. It is called in a new
	// goroutine and must close Client.Send when done.
	AcceptClient(ctx context.Context, client *Client)
	// SayGoodbyeToClient is called when a Client's connection has been closed.
	SayGoodbyeToClient(client *Client)
}

// Hub holds all active clients.
type Hub struct {
	logger *zap.Logger
	// clientListener is used for notifying of new clients or unregistered ones.
	clientListener ClientListener
	// clients holds all online clients.
	clients map[*Client]struct{}
	// clientCount is the length of clients for reading from other goroutines.
	clientCount *atomic.Int32
	// register receives when a Client wants to register itself.
	register chan *Client
	// unregister receives when a Client wants to unregister itself.
	unregister chan *Client
}

// NewHub creates a new Hub. Start it with Hub.Run.
func NewHub(logger *zap.Logger, clientListener ClientListener) *Hub {
	return &Hub{
		logger:         logger,
		clientListener: clientListener,
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		clients:        make(map[*Client]struct{}),
		clientCount:    atomic.NewInt32(0),
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// Run the Hub until the given context is done. Remaining connections are closed
// then.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				_ = c.connection.Close()
			}
			return nil
		case c := <-h.register:
			// Register client.
			h.clients[c] = struct{}{}
			h.clientCount.Store(int32(len(h.clients)))
			c.logger.Info("client connected", zap.String("captain_id", c.Captain.ID))
			go h.clientListener.AcceptClient(ctx, c)
		case c := <-h.unregister:
			// Unregister client.
			if _, ok := h.clients[c]; ok {
				h.clientListener.SayGoodbyeToClient(c)
				delete(h.clients, c)
				h.clientCount.Store(int32(len(h.clients)))
				c.logger.Info("client disconnected")
			}
		}
	}
}
