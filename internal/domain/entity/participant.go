package entity

import "time"

// Participant is any actor in the system: admin dispatch, fire station,
// field responder or citizen. EmergencyMode is the sender-side flag read at
// send time; flipping it later never rewrites already-sent messages.
type Participant struct {
	ID            string    `json:"id" firestore:"id"`
	Role          string    `json:"role" firestore:"role"`
	DisplayName   string    `json:"display_name" firestore:"displayName"`
	Email         string    `json:"email,omitempty" firestore:"email,omitempty"`
	EmergencyMode bool      `json:"emergency_mode" firestore:"emergencyMode"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updatedAt"`
}
