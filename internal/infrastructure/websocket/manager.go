package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"firedispatch/internal/domain/entity"
	"firedispatch/internal/domain/repository"
	"firedispatch/internal/usecase"
)

// Client represents one connected participant and its live thread session.
type Client struct {
	Participant *entity.Participant
	Conn        *websocket.Conn
	Send        chan []byte
	Session     *usecase.ThreadSession

	mu     sync.Mutex
	closed bool
}

// trySend queues a payload without blocking. Returns false when the client
// is closed or its buffer is full, so a slow reader never stalls the
// subscription goroutine.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound channel exactly once. Sends and close are
// serialized on c.mu, so a concurrent trySend never hits a closed channel.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Manager manages all active WebSocket connections
type Manager struct {
	clients         map[string]*Client
	Register        chan *Client
	Unregister      chan *Client
	participantRepo repository.ParticipantRepository
	mutex           sync.RWMutex
}

func NewManager(participantRepo repository.ParticipantRepository) *Manager {
	return &Manager{
		clients:         make(map[string]*Client),
		Register:        make(chan *Client),
		Unregister:      make(chan *Client),
		participantRepo: participantRepo,
	}
}

// Start runs the manager's main loop in a goroutine
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if existing, ok := m.clients[client.Participant.ID]; ok {
					// One live session per participant
					existing.Session.Close()
					existing.closeSend()
					existing.Conn.Close()
				}
				m.clients[client.Participant.ID] = client
				m.mutex.Unlock()
				log.Printf("Client registered: %s", client.Participant.ID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if current, ok := m.clients[client.Participant.ID]; ok && current == client {
					delete(m.clients, client.Participant.ID)
					client.Session.Close()
					client.closeSend()
				}
				m.mutex.Unlock()
				log.Printf("Client unregistered: %s", client.Participant.ID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// SendToParticipant sends a raw payload to a specific connected participant
func (m *Manager) SendToParticipant(participantID string, payload []byte) {
	m.mutex.RLock()
	client, ok := m.clients[participantID]
	m.mutex.RUnlock()

	if ok && !client.trySend(payload) {
		log.Printf("Client %s unavailable, dropping payload", participantID)
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump(ctx context.Context, m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error for %s: %v", c.Participant.ID, err)
			}
			break
		}

		m.HandleClientMessage(ctx, c, payload)
	}
}

// WritePump sends messages to the WebSocket connection
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("WebSocket write error for %s: %v", c.Participant.ID, err)
			return
		}
	}
}
