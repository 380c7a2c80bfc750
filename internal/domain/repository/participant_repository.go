package repository

import (
	"context"

	"firedispatch/internal/domain/entity"
)

type ParticipantRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Participant, error)
	SetEmergencyMode(ctx context.Context, id string, enabled bool) error
}
