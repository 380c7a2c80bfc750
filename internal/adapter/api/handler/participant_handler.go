package handler

import (
	"github.com/labstack/echo/v4"

	"firedispatch/internal/domain/repository"
	"firedispatch/internal/infrastructure/firebase"
	"firedispatch/pkg/response"
)

type ParticipantHandler struct {
	participantRepo repository.ParticipantRepository
	authClient      *firebase.FirebaseAuthClient
}

func NewParticipantHandler(participantRepo repository.ParticipantRepository, authClient *firebase.FirebaseAuthClient) *ParticipantHandler {
	return &ParticipantHandler{
		participantRepo: participantRepo,
		authClient:      authClient,
	}
}

type emergencyModeRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// Me returns the authenticated participant's profile
func (h *ParticipantHandler) Me(c echo.Context) error {
	uid := c.Get("uid").(string)

	participant, err := h.participantRepo.GetByID(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	// Older profiles were created without a display name; fall back to the
	// auth record so messages composed from this profile carry a label.
	if participant.DisplayName == "" {
		if name, err := h.authClient.GetUserDisplayName(c.Request().Context(), uid); err == nil {
			participant.DisplayName = name
		}
	}

	return response.Success(c, participant)
}

// SetEmergencyMode flips the caller's emergency flag. Only messages sent
// after the change pick up the new value.
func (h *ParticipantHandler) SetEmergencyMode(c echo.Context) error {
	var req emergencyModeRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	if err := h.participantRepo.SetEmergencyMode(c.Request().Context(), uid, *req.Enabled); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"emergency_mode": *req.Enabled,
	})
}
