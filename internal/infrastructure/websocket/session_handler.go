package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// WebSocket message types
const (
	MessageTypePing               = "ping"
	MessageTypePong               = "pong"
	MessageTypeSelectConversation = "select_conversation"
	MessageTypeClearConversation  = "clear_conversation"
	MessageTypeThread             = "thread"
	MessageTypeThreadError        = "thread_error"
)

type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type SelectConversationData struct {
	CounterpartID string `json:"counterpart_id"`
}

// HandleClientMessage processes incoming WebSocket messages
func (m *Manager) HandleClientMessage(ctx context.Context, client *Client, payload []byte) {
	var wsMessage WSMessage

	if err := json.Unmarshal(payload, &wsMessage); err != nil {
		log.Printf("WebSocket: Failed to unmarshal message from client %s: %v", client.Participant.ID, err)
		m.sendErrorToClient(client, "Invalid message format")
		return
	}

	switch wsMessage.Type {
	case MessageTypePing:
		m.sendToClient(client, WSMessage{
			Type:      MessageTypePong,
			Data:      map[string]string{"status": "alive"},
			Timestamp: time.Now().Format(time.RFC3339),
		})

	case MessageTypeSelectConversation:
		m.handleSelectConversation(ctx, client, wsMessage.Data)

	case MessageTypeClearConversation:
		client.Session.Deselect()
		log.Printf("WebSocket: Client %s cleared conversation", client.Participant.ID)

	default:
		log.Printf("WebSocket: Unknown message type '%s' from client %s", wsMessage.Type, client.Participant.ID)
		m.sendErrorToClient(client, "Unknown message type")
	}
}

func (m *Manager) handleSelectConversation(ctx context.Context, client *Client, data interface{}) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		m.sendErrorToClient(client, "Invalid selection data")
		return
	}

	var selectData SelectConversationData
	if err := json.Unmarshal(dataBytes, &selectData); err != nil {
		m.sendErrorToClient(client, "Invalid selection format")
		return
	}

	if selectData.CounterpartID == "" {
		m.sendErrorToClient(client, "Missing counterpart_id")
		return
	}

	counterpart, err := m.participantRepo.GetByID(ctx, selectData.CounterpartID)
	if err != nil {
		log.Printf("WebSocket: Counterpart %s not found for client %s: %v", selectData.CounterpartID, client.Participant.ID, err)
		m.sendErrorToClient(client, "Counterpart not found")
		return
	}

	client.Session.Select(ctx, counterpart)
	log.Printf("WebSocket: Client %s selected conversation with %s", client.Participant.ID, counterpart.ID)
}

func (m *Manager) sendToClient(client *Client, message WSMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("WebSocket: Failed to marshal message for client %s: %v", client.Participant.ID, err)
		return
	}

	if !client.trySend(payload) {
		log.Printf("WebSocket: Client %s unavailable, dropping message", client.Participant.ID)
	}
}

func (m *Manager) sendErrorToClient(client *Client, errorMsg string) {
	m.sendToClient(client, WSMessage{
		Type: MessageTypeThreadError,
		Data: map[string]string{
			"error": errorMsg,
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
