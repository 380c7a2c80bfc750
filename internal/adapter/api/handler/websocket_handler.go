package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"firedispatch/internal/domain/repository"
	"firedispatch/internal/infrastructure/firebase"
	ws "firedispatch/internal/infrastructure/websocket"
	"firedispatch/internal/usecase"
	"firedispatch/pkg/errors"
)

type WebSocketHandler struct {
	wsManager       *ws.Manager
	authClient      *firebase.FirebaseAuthClient
	participantRepo repository.ParticipantRepository
	messageRepo     repository.MessageRepository
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Restrict in production
	},
}

func NewWebSocketHandler(
	wsManager *ws.Manager,
	authClient *firebase.FirebaseAuthClient,
	participantRepo repository.ParticipantRepository,
	messageRepo repository.MessageRepository,
) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:       wsManager,
		authClient:      authClient,
		participantRepo: participantRepo,
		messageRepo:     messageRepo,
	}
}

// HandleWebSocket upgrades the connection and starts a live thread session.
// The token arrives as a query parameter because browsers cannot set headers
// on WebSocket upgrades.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return errors.Unauthorized("Authentication token is required", nil)
	}

	uid, err := h.authClient.VerifyToken(c.Request().Context(), token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	participant, err := h.participantRepo.GetByID(c.Request().Context(), uid)
	if err != nil {
		return errors.Unauthorized("Participant identity is not available", err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := &ws.Client{
		Participant: participant,
		Conn:        conn,
		Send:        make(chan []byte, 256),
	}

	client.Session = usecase.NewThreadSession(
		h.messageRepo,
		participant,
		func(event usecase.ThreadEvent) {
			h.pushToClient(client, ws.WSMessage{
				Type:      ws.MessageTypeThread,
				Data:      event,
				Timestamp: time.Now().Format(time.RFC3339),
			})
		},
		func(err error) {
			h.pushToClient(client, ws.WSMessage{
				Type:      ws.MessageTypeThreadError,
				Data:      map[string]string{"error": err.Error()},
				Timestamp: time.Now().Format(time.RFC3339),
			})
		},
	)

	h.wsManager.Register <- client

	// The request context dies when this handler returns, so session
	// subscriptions run on a connection-scoped context instead. It is
	// canceled through the session when the client unregisters.
	go client.ReadPump(context.Background(), h.wsManager)
	go client.WritePump()

	return nil
}

func (h *WebSocketHandler) pushToClient(client *ws.Client, message ws.WSMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("WebSocket: Failed to marshal thread event for %s: %v", client.Participant.ID, err)
		return
	}

	h.wsManager.SendToParticipant(client.Participant.ID, payload)
}
