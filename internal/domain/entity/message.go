package entity

import (
	"strings"
	"time"

	"firedispatch/pkg/errors"
)

// Participant roles. "system" is a reserved sentinel for messages not
// authored by a real participant.
const (
	RoleAdmin     = "admin"
	RoleStation   = "station"
	RoleResponder = "responder"
	RoleCitizen   = "citizen"
	RoleSystem    = "system"
)

// SystemSenderID is the sender id used for system-generated messages.
const SystemSenderID = "system"

// Mutable set fields on a message. Everything else is immutable after the
// record is appended to the log.
const (
	FieldAcknowledgedBy = "acknowledgedBy"
	FieldCheckReactedBy = "checkReactedBy"
	FieldSeenBy         = "seenBy"
)

// Message is one record in the shared, globally time-ordered log. The log
// is append-only: AcknowledgedBy, CheckReactedBy and SeenBy are the only
// fields mutated after creation.
type Message struct {
	ID                string    `json:"id" firestore:"id"`
	SenderID          string    `json:"sender_id" firestore:"senderId"`
	SenderDisplayName string    `json:"sender_display_name" firestore:"senderDisplayName"`
	ReceiverID        string    `json:"receiver_id,omitempty" firestore:"receiverId"`
	Role              string    `json:"role" firestore:"role"`
	Body              string    `json:"body" firestore:"body"`
	ImageURL          string    `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	IsEmergency       bool      `json:"is_emergency" firestore:"isEmergency"`
	CreatedAt         time.Time `json:"created_at" firestore:"createdAt"`
	AcknowledgedBy    []string  `json:"acknowledged_by" firestore:"acknowledgedBy"`
	CheckReactedBy    []string  `json:"check_reacted_by,omitempty" firestore:"checkReactedBy,omitempty"` // Deprecated: one-way react set kept for old clients
	SeenBy            []string  `json:"seen_by" firestore:"seenBy"`
}

// ComposeText builds an outgoing text message. The store assigns ID and
// CreatedAt on append.
func ComposeText(sender *Participant, receiverID, text string, emergency bool) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.Validation("Message body must not be empty", nil)
	}

	return &Message{
		SenderID:          sender.ID,
		SenderDisplayName: sender.DisplayName,
		ReceiverID:        receiverID,
		Role:              sender.Role,
		Body:              text,
		IsEmergency:       emergency,
		AcknowledgedBy:    []string{},
		SeenBy:            []string{sender.ID},
	}, nil
}

// ComposeImage builds an outgoing image message referencing a previously
// uploaded attachment. Body is left empty.
func ComposeImage(sender *Participant, receiverID, imageURL string, emergency bool) (*Message, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, errors.Validation("Image URL must not be empty", nil)
	}

	return &Message{
		SenderID:          sender.ID,
		SenderDisplayName: sender.DisplayName,
		ReceiverID:        receiverID,
		Role:              sender.Role,
		Body:              "",
		ImageURL:          imageURL,
		IsEmergency:       emergency,
		AcknowledgedBy:    []string{},
		SeenBy:            []string{sender.ID},
	}, nil
}

// ValidRole reports whether role is one of the participant categories.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStation, RoleResponder, RoleCitizen, RoleSystem:
		return true
	}
	return false
}
