package router

import (
	"github.com/labstack/echo/v4"

	"firedispatch/internal/adapter/api/handler"
	"firedispatch/internal/adapter/api/middleware"
)

// SetupAttachmentRouter sets up the attachment upload route
func SetupAttachmentRouter(e *echo.Echo, attachmentHandler *handler.AttachmentHandler, authMiddleware *middleware.AuthMiddleware) {
	attachmentGroup := e.Group("/v1/attachments")
	attachmentGroup.Use(authMiddleware.Authenticate)

	attachmentGroup.POST("", attachmentHandler.Upload) // POST /v1/attachments - Upload image, returns URL
}
