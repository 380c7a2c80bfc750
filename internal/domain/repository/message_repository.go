package repository

import (
	"context"

	"firedispatch/internal/domain/entity"
)

// MessageRepository is the capability set the messaging core consumes from
// the hosted document store: durable appends to the shared log, full ordered
// reads, atomic set-membership mutation on one field of one record, and a
// live full-snapshot subscription.
type MessageRepository interface {
	Append(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	ListAll(ctx context.Context) ([]*entity.Message, error)

	AddToSet(ctx context.Context, messageID, field, participantID string) error
	RemoveFromSet(ctx context.Context, messageID, field, participantID string) error

	// Subscribe opens a live subscription to the full log ordered by
	// createdAt ascending. Every update delivers the entire current
	// snapshot, never a diff. onError is invoked at most once, after which
	// no further snapshots are delivered. The returned function cancels the
	// subscription.
	Subscribe(ctx context.Context, onSnapshot func([]*entity.Message), onError func(error)) func()
}
