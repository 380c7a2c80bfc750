package router

import (
	"github.com/labstack/echo/v4"

	"firedispatch/internal/adapter/api/handler"
	"firedispatch/internal/adapter/api/middleware"
)

// SetupParticipantRouter sets up participant identity routes
func SetupParticipantRouter(e *echo.Echo, participantHandler *handler.ParticipantHandler, authMiddleware *middleware.AuthMiddleware) {
	participantGroup := e.Group("/v1/participants")
	participantGroup.Use(authMiddleware.Authenticate)

	participantGroup.GET("/me", participantHandler.Me)                         // GET /v1/participants/me
	participantGroup.PUT("/me/emergency", participantHandler.SetEmergencyMode) // PUT /v1/participants/me/emergency
}
