package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"firedispatch/internal/domain/entity"
	"firedispatch/internal/domain/repository"
	"firedispatch/pkg/errors"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) Append(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	message.CreatedAt = time.Now()

	_, err := r.client.Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.StoreWrite("Failed to append message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.client.Collection("messages").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}

func (r *firestoreMessageRepository) ListAll(ctx context.Context) ([]*entity.Message, error) {
	query := r.client.Collection("messages").OrderBy("createdAt", firestore.Asc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		log.Printf("Firestore error while listing message log: %v", err)
		return nil, errors.Internal("Failed to list messages", err)
	}

	var messages []*entity.Message
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			log.Printf("Error parsing message data for doc %s: %v", doc.Ref.ID, err)
			continue // Skip bad data instead of failing
		}
		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreMessageRepository) AddToSet(ctx context.Context, messageID, field, participantID string) error {
	_, err := r.client.Collection("messages").Doc(messageID).Update(ctx, []firestore.Update{
		{Path: field, Value: firestore.ArrayUnion(participantID)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", err)
		}
		return errors.StoreWrite("Failed to update message field", err)
	}

	return nil
}

func (r *firestoreMessageRepository) RemoveFromSet(ctx context.Context, messageID, field, participantID string) error {
	_, err := r.client.Collection("messages").Doc(messageID).Update(ctx, []firestore.Update{
		{Path: field, Value: firestore.ArrayRemove(participantID)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", err)
		}
		return errors.StoreWrite("Failed to update message field", err)
	}

	return nil
}

func (r *firestoreMessageRepository) Subscribe(ctx context.Context, onSnapshot func([]*entity.Message), onError func(error)) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		iter := r.client.Collection("messages").OrderBy("createdAt", firestore.Asc).Snapshots(ctx)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				log.Printf("Firestore error on message log subscription: %v", err)
				onError(errors.StoreSubscription("Message log subscription terminated", err))
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				log.Printf("Firestore error reading log snapshot: %v", err)
				onError(errors.StoreSubscription("Failed to read log snapshot", err))
				return
			}

			messages := make([]*entity.Message, 0, len(docs))
			for _, doc := range docs {
				var message entity.Message
				if err := doc.DataTo(&message); err != nil {
					log.Printf("Error parsing message data for doc %s: %v", doc.Ref.ID, err)
					continue
				}
				messages = append(messages, &message)
			}

			onSnapshot(messages)
		}
	}()

	return cancel
}
