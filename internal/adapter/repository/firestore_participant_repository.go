package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"firedispatch/internal/domain/entity"
	"firedispatch/internal/domain/repository"
	"firedispatch/pkg/errors"
)

type firestoreParticipantRepository struct {
	client *firestore.Client
}

func NewFirestoreParticipantRepository(client *firestore.Client) repository.ParticipantRepository {
	return &firestoreParticipantRepository{
		client: client,
	}
}

func (r *firestoreParticipantRepository) GetByID(ctx context.Context, id string) (*entity.Participant, error) {
	doc, err := r.client.Collection("participants").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Participant", err)
		}
		return nil, errors.Internal("Failed to get participant", err)
	}

	var participant entity.Participant
	if err := doc.DataTo(&participant); err != nil {
		return nil, errors.Internal("Failed to parse participant data", err)
	}
	participant.ID = doc.Ref.ID

	return &participant, nil
}

func (r *firestoreParticipantRepository) SetEmergencyMode(ctx context.Context, id string, enabled bool) error {
	_, err := r.client.Collection("participants").Doc(id).Update(ctx, []firestore.Update{
		{Path: "emergencyMode", Value: enabled},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Participant", err)
		}
		return errors.StoreWrite("Failed to update emergency mode", err)
	}

	return nil
}
