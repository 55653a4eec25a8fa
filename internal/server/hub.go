package server

import (
	"context"
	"encoding/json"
	"time"

	"cardview/internal/notify"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

// Message is the envelope of everything pushed over the socket.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Client is one websocket connection, optionally scoped to a board.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	// pong carries replies from ReadPump to WritePump. Only the hub closes
	// send, so the reader never writes to it.
	pong    chan []byte
	boardID string // "" receives every board
}

// NewClient wraps a websocket connection for hub.
func NewClient(hub *Hub, conn *websocket.Conn, boardID string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		pong:    make(chan []byte, 1),
		boardID: boardID,
	}
}

type broadcast struct {
	boardID string
	payload []byte
}

// Hub fans refresh events out to connected clients. It implements
// notify.Notifier so the engine can publish to it directly.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan broadcast
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *zap.Logger
}

var _ notify.Notifier = (*Hub)(nil)

// NewHub creates a new hub instance
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		broadcast:  make(chan broadcast, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Notify queues a refresh event for the clients watching its board.
func (h *Hub) Notify(ctx context.Context, event notify.Event) error {
	payload, err := json.Marshal(Message{Type: "refresh", Data: event})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- broadcast{boardID: event.BoardID, payload: payload}:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the hub's main loop. It returns when ctx is done, closing
// every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client connected", zap.String("board", client.boardID), zap.Int("clients", len(h.clients)))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug("client disconnected", zap.String("board", client.boardID), zap.Int("clients", len(h.clients)))
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				if msg.boardID != "" && client.boardID != "" && client.boardID != msg.boardID {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					// Client's send buffer is full, assume disconnected
					h.logger.Warn("client send buffer full, removing client", zap.String("board", client.boardID))
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// ReadPump pumps messages from the WebSocket connection. Clients only send
// pings; anything else is ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil || msg.Type != "ping" {
			continue
		}
		pong, err := json.Marshal(Message{Type: "pong", Data: map[string]string{"timestamp": time.Now().Format(time.RFC3339)}})
		if err != nil {
			continue
		}
		select {
		case c.pong <- pong:
		default:
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case message := <-c.pong:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
