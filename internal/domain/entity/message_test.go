package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firedispatch/pkg/errors"
)

func testSender() *Participant {
	return &Participant{
		ID:          "citizen-1",
		Role:        RoleCitizen,
		DisplayName: "Ana Reyes",
	}
}

func TestComposeText(t *testing.T) {
	msg, err := ComposeText(testSender(), "station-1", "Fire at 5th St", true)
	require.NoError(t, err)

	assert.Equal(t, "citizen-1", msg.SenderID)
	assert.Equal(t, "Ana Reyes", msg.SenderDisplayName)
	assert.Equal(t, "station-1", msg.ReceiverID)
	assert.Equal(t, RoleCitizen, msg.Role)
	assert.Equal(t, "Fire at 5th St", msg.Body)
	assert.Empty(t, msg.ImageURL)
	assert.True(t, msg.IsEmergency)

	// The store assigns id and timestamp on append
	assert.Empty(t, msg.ID)
	assert.True(t, msg.CreatedAt.IsZero())

	// Sender has trivially seen their own message; nobody has acknowledged
	assert.Equal(t, []string{"citizen-1"}, msg.SeenBy)
	assert.Empty(t, msg.AcknowledgedBy)
}

func TestComposeTextRejectsBlankBody(t *testing.T) {
	for _, body := range []string{"", "   ", "\n\t "} {
		_, err := ComposeText(testSender(), "station-1", body, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
	}
}

func TestComposeImage(t *testing.T) {
	msg, err := ComposeImage(testSender(), "station-1", "https://storage.googleapis.com/bucket/a.jpg", false)
	require.NoError(t, err)

	assert.Empty(t, msg.Body)
	assert.Equal(t, "https://storage.googleapis.com/bucket/a.jpg", msg.ImageURL)
	assert.False(t, msg.IsEmergency)
}

func TestComposeImageRequiresURL(t *testing.T) {
	_, err := ComposeImage(testSender(), "station-1", "  ", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleStation, RoleResponder, RoleCitizen, RoleSystem} {
		assert.True(t, ValidRole(role), role)
	}
	assert.False(t, ValidRole("dispatcher"))
	assert.False(t, ValidRole(""))
}
