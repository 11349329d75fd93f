package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/clipforge/api/internal/model"
)

// Client represents a WebSocket client
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	closed bool
}

// trySend queues a frame unless the session is closed or its buffer is
// full. A false return means the session should be dropped.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound channel exactly once. Both the unregister
// and the slow-drop path call this, in any order.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Hub maintains active WebSocket connections grouped by user, so every
// session a user has open receives their job events.
type Hub struct {
	// Clients grouped by user ID
	clients map[string]map[*Client]bool

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Broadcast messages to a user's sessions
	broadcast chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	UserID  string
	Message []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			h.mu.Unlock()
			log.Printf("Client registered for user %s", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					client.closeSend()
					if len(clients) == 0 {
						delete(h.clients, client.UserID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("Client unregistered for user %s", client.UserID)

		case msg := <-h.broadcast:
			h.mu.Lock()
			if clients, ok := h.clients[msg.UserID]; ok {
				for client := range clients {
					if !client.trySend(msg.Message) {
						client.closeSend()
						delete(clients, client)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, msg.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JobStatusChanged notifies a user's sessions that a job changed status.
func (h *Hub) JobStatusChanged(ownerID, jobID string, status model.JobStatus, errorMessage string) {
	msg := model.WSStatusChangedMessage{
		Type:         model.WSMessageTypeStatusChanged,
		JobID:        jobID,
		Status:       status,
		ErrorMessage: errorMessage,
	}
	h.send(ownerID, msg)
}

// JobCompleted notifies a user's sessions that a render finished.
func (h *Hub) JobCompleted(ownerID, jobID, platform string) {
	msg := model.WSJobCompletedMessage{
		Type:     model.WSMessageTypeJobCompleted,
		JobID:    jobID,
		Platform: platform,
	}
	h.send(ownerID, msg)
}

// BatchCompleted notifies a user's sessions that a batch submission
// created its jobs.
func (h *Hub) BatchCompleted(ownerID string, jobIDs []string) {
	msg := model.WSBatchCompletedMessage{
		Type:   model.WSMessageTypeBatchCompleted,
		JobIDs: jobIDs,
	}
	h.send(ownerID, msg)
}

func (h *Hub) send(userID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal websocket message: %v", err)
		return
	}

	h.broadcast <- &BroadcastMessage{
		UserID:  userID,
		Message: data,
	}
}

// HandleConnection handles a WebSocket connection
func (h *Hub) HandleConnection(c *websocket.Conn, userID string) {
	client := &Client{
		UserID: userID,
		Conn:   c,
		Send:   make(chan []byte, 256),
	}

	h.Register(client)
	defer h.Unregister(client)

	// Start writer goroutine
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				// Send ping for keep-alive
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Handle client messages (ping/pong)
		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			pong := model.WSMessage{Type: model.WSMessageTypePong}
			data, _ := json.Marshal(pong)
			// The hub may already have dropped this session as slow;
			// trySend makes the reply a no-op in that case.
			client.trySend(data)
		}
	}
}
