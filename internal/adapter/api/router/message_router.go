package router

import (
	"github.com/labstack/echo/v4"

	"firedispatch/internal/adapter/api/handler"
	"firedispatch/internal/adapter/api/middleware"
)

// SetupMessageRouter sets up the messaging routes
func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	messageGroup := e.Group("/v1/messages")
	messageGroup.Use(authMiddleware.Authenticate)

	messageGroup.POST("", messageHandler.SendMessage)               // POST /v1/messages - Append to the shared log
	messageGroup.GET("/thread", messageHandler.GetThread)           // GET /v1/messages/thread?counterpart_id=... - Derived conversation
	messageGroup.PUT("/thread/seen", messageHandler.MarkThreadSeen) // PUT /v1/messages/thread/seen - Mark thread seen
	messageGroup.POST("/:id/ack", messageHandler.ToggleAck)         // POST /v1/messages/:id/ack - Toggle acknowledgment
	messageGroup.POST("/:id/react", messageHandler.React)           // POST /v1/messages/:id/react - Legacy one-way react
}
