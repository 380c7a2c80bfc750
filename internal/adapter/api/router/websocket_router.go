package router

import (
	"github.com/labstack/echo/v4"

	"firedispatch/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up the live thread session endpoint
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket) // GET /ws?token=... - Live conversation session
}
