package handler

import (
	"github.com/labstack/echo/v4"

	"firedispatch/internal/infrastructure/ratelimit"
	"firedispatch/internal/infrastructure/storage"
	"firedispatch/pkg/errors"
	"firedispatch/pkg/response"
)

type AttachmentHandler struct {
	storageClient *storage.CloudStorageClient
	rateLimiter   *ratelimit.RateLimiter
}

func NewAttachmentHandler(storageClient *storage.CloudStorageClient) *AttachmentHandler {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &AttachmentHandler{
		storageClient: storageClient,
		rateLimiter:   rateLimiter,
	}
}

// Upload stores an image and returns the URL to reference from a message.
// The upload and the subsequent message append are two separate calls; the
// client holds its "uploading" state across both.
func (h *AttachmentHandler) Upload(c echo.Context) error {
	uid := c.Get("uid").(string)

	allowed, waitTime := h.rateLimiter.Allow(uid, "upload_attachment")
	if !allowed {
		return response.Error(c, errors.TooManyRequests("Rate limit exceeded. Please wait before uploading again", waitTime))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("File is required", err))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	switch contentType {
	case "image/jpeg", "image/jpg", "image/png", "image/gif":
	default:
		return response.Error(c, errors.BadRequest("Only image uploads are supported", nil))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open uploaded file", err))
	}
	defer file.Close()

	url, err := h.storageClient.UploadAttachment(c.Request().Context(), file, contentType)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to upload attachment", err))
	}

	return response.Created(c, map[string]string{
		"url": url,
	})
}
