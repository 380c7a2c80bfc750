package service

import (
	"sort"

	"firedispatch/internal/domain/entity"
)

// DeriveThread returns the ordered sub-sequence of the global log belonging
// to the conversation between self and counterpart.
//
// A message belongs to the thread when either:
//  1. its (senderId, receiverId) matches the unordered pair
//     {self, counterpart}, or
//  2. legacy fallback: its author role equals the counterpart's role and the
//     counterpart appears as sender or addressee. Older writers left
//     receiverId empty, so this is the only way those messages stay visible.
//     It admits cross-talk when two participants share a role; callers must
//     treat it as best-effort.
//
// The result is sorted ascending by createdAt. Messages without a confirmed
// server timestamp sort last, in log order. Derivation is deterministic: the
// same snapshot always yields the same thread.
func DeriveThread(log []*entity.Message, self, counterpart *entity.Participant) []*entity.Message {
	thread := make([]*entity.Message, 0, len(log))
	for _, m := range log {
		if belongsToThread(m, self, counterpart) {
			thread = append(thread, m)
		}
	}

	sort.SliceStable(thread, func(i, j int) bool {
		a, b := thread[i], thread[j]
		if a.CreatedAt.IsZero() || b.CreatedAt.IsZero() {
			return b.CreatedAt.IsZero() && !a.CreatedAt.IsZero()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	return thread
}

func belongsToThread(m *entity.Message, self, counterpart *entity.Participant) bool {
	if m.SenderID == self.ID && m.ReceiverID == counterpart.ID {
		return true
	}
	if m.SenderID == counterpart.ID && m.ReceiverID == self.ID {
		return true
	}

	// Legacy fallback for records written before receiverId was populated.
	if m.Role == counterpart.Role {
		if m.SenderID == counterpart.ID && m.ReceiverID == "" {
			return true
		}
		if m.ReceiverID == counterpart.ID {
			return true
		}
	}

	return false
}

// AckSet returns the authoritative acknowledgment set for a message.
// AcknowledgedBy wins whenever it is present; the deprecated CheckReactedBy
// set is a read-only fallback. The two are never merged.
func AckSet(m *entity.Message) []string {
	if m.AcknowledgedBy != nil {
		return m.AcknowledgedBy
	}
	return m.CheckReactedBy
}

// HasAcknowledged reports whether participantID is in the message's
// authoritative acknowledgment set.
func HasAcknowledged(m *entity.Message, participantID string) bool {
	for _, id := range AckSet(m) {
		if id == participantID {
			return true
		}
	}
	return false
}

// HasSeen reports whether participantID is in the message's seen set.
func HasSeen(m *entity.Message, participantID string) bool {
	for _, id := range m.SeenBy {
		if id == participantID {
			return true
		}
	}
	return false
}
