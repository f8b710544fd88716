package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/awion/stadion360/model"
	"github.com/awion/stadion360/public/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 64
)

// MessageType represents different types of real-time messages
type MessageType string

const (
	MessageTypeSnapshot MessageType = "snapshot"
	MessageTypeUpdate   MessageType = "update"
)

// Message is what clients receive for every store change
type Message struct {
	Type      MessageType           `json:"type"`
	Operation string                `json:"operation,omitempty"`
	Payload   model.SimulationState `json:"payload"`
	Timestamp time.Time             `json:"timestamp"`
}

// Hub maintains the set of active connections and broadcasts snapshots
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	snapshot   func() model.SimulationState
	logger     *zap.Logger
	mutex      sync.RWMutex
}

// Client represents a WebSocket client connection
type Client struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Watch-only feed, origin is not checked.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewHub creates a new WebSocket hub. snapshot is read by Run when a
// connection registers so clients start from the current state.
func NewHub(snapshot func() model.SimulationState, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		snapshot:   snapshot,
		logger:     logger,
	}
}

// Run starts the hub and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			// Updates published after this read are broadcast later by this
			// loop, so the client sees them in order after its snapshot.
			if initial, err := encode(MessageTypeSnapshot, "", h.snapshot()); err == nil {
				client.Send <- initial
			} else {
				h.logger.Error("Failed to encode snapshot", zap.Error(err))
			}

			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Debug("Client connected", zap.String("client_id", client.ID))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			h.logger.Debug("Client disconnected", zap.String("client_id", client.ID))

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()

		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Publish is a store.Listener. It never blocks the store: when the
// broadcast queue is full the update is dropped and clients catch up on
// the next one.
func (h *Hub) Publish(op store.Operation, state model.SimulationState) {
	data, err := encode(MessageTypeUpdate, string(op), state)
	if err != nil {
		h.logger.Error("Failed to encode update", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Realtime broadcast queue full, dropping update", zap.String("operation", string(op)))
	}
}

// HandleWebSocket handles WebSocket connections
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:   uuid.NewString(),
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// ConnectedClients returns the number of connected clients
func (h *Hub) ConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func encode(kind MessageType, op string, state model.SimulationState) ([]byte, error) {
	data, err := json.Marshal(Message{
		Type:      kind,
		Operation: op,
		Payload:   state,
		Timestamp: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}

// readPump drains the connection so pongs and close frames are processed.
// Clients are watch-only; any payload they send is ignored.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Debug("WebSocket error", zap.Error(err))
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
