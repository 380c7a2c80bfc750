package handler

import (
	"github.com/labstack/echo/v4"

	"firedispatch/internal/usecase"
	"firedispatch/pkg/response"
)

type MessageHandler struct {
	messagingUseCase *usecase.MessagingUseCase
}

func NewMessageHandler(messagingUseCase *usecase.MessagingUseCase) *MessageHandler {
	return &MessageHandler{
		messagingUseCase: messagingUseCase,
	}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=text image"`
	Body       string `json:"body"`
	ImageURL   string `json:"image_url" validate:"omitempty,url"`
}

type markSeenRequest struct {
	CounterpartID string `json:"counterpart_id" validate:"required"`
}

// SendMessage appends a text or image message to the shared log
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	if req.Type == "image" {
		message, err := h.messagingUseCase.SendImage(c.Request().Context(), uid, usecase.SendImageInput{
			ReceiverID: req.ReceiverID,
			ImageURL:   req.ImageURL,
		})
		if err != nil {
			return response.Error(c, err)
		}
		return response.Created(c, message)
	}

	message, err := h.messagingUseCase.SendText(c.Request().Context(), uid, usecase.SendTextInput{
		ReceiverID: req.ReceiverID,
		Body:       req.Body,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetThread returns the derived conversation with a counterpart
func (h *MessageHandler) GetThread(c echo.Context) error {
	uid := c.Get("uid").(string)
	counterpartID := c.QueryParam("counterpart_id")

	thread, err := h.messagingUseCase.GetThread(c.Request().Context(), uid, counterpartID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, thread)
}

// ToggleAck toggles the caller's membership in a message's ack set
func (h *MessageHandler) ToggleAck(c echo.Context) error {
	uid := c.Get("uid").(string)
	messageID := c.Param("id")

	acknowledged, err := h.messagingUseCase.ToggleAck(c.Request().Context(), uid, messageID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"message_id":   messageID,
		"acknowledged": acknowledged,
	})
}

// React adds the caller to a message's legacy one-way react set
func (h *MessageHandler) React(c echo.Context) error {
	uid := c.Get("uid").(string)
	messageID := c.Param("id")

	if err := h.messagingUseCase.React(c.Request().Context(), uid, messageID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"message_id": messageID,
		"reacted":    true,
	})
}

// MarkThreadSeen marks every counterpart message in the thread as seen
func (h *MessageHandler) MarkThreadSeen(c echo.Context) error {
	var req markSeenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	marked, err := h.messagingUseCase.MarkThreadSeen(c.Request().Context(), uid, req.CounterpartID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"marked": marked,
	})
}
