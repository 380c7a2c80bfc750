package usecase

import (
	"context"
	"strings"

	"firedispatch/internal/domain/entity"
	"firedispatch/internal/domain/repository"
	"firedispatch/internal/domain/service"
	"firedispatch/internal/infrastructure/ratelimit"
	"firedispatch/pkg/errors"
	"firedispatch/pkg/logger"
)

type MessagingUseCase struct {
	messageRepo     repository.MessageRepository
	participantRepo repository.ParticipantRepository
	rateLimiter     *ratelimit.RateLimiter
}

func NewMessagingUseCase(
	messageRepo repository.MessageRepository,
	participantRepo repository.ParticipantRepository,
) *MessagingUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &MessagingUseCase{
		messageRepo:     messageRepo,
		participantRepo: participantRepo,
		rateLimiter:     rateLimiter,
	}
}

type SendTextInput struct {
	ReceiverID string
	Body       string
}

type SendImageInput struct {
	ReceiverID string
	ImageURL   string
}

// SendText composes and appends a text message. The emergency flag is read
// from the sender's current mode at the moment of send; toggling the mode
// afterwards never rewrites messages already in the log. A failed append is
// surfaced once and not retried.
func (uc *MessagingUseCase) SendText(ctx context.Context, senderID string, input SendTextInput) (*entity.Message, error) {
	if senderID == "" {
		return nil, errors.Unauthorized("Authentication required to send messages", nil)
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, errors.Validation("Message body must not be empty", nil)
	}
	if input.ReceiverID == "" {
		return nil, errors.Validation("No counterpart selected", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message")
	if !allowed {
		logger.Warn("SendText rate limited: Participant %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	sender, err := uc.participantRepo.GetByID(ctx, senderID)
	if err != nil {
		logger.Error("SendText: Sender %s not found: %v", senderID, err)
		return nil, errors.Unauthorized("Sender identity is not available", err)
	}

	message, err := entity.ComposeText(sender, input.ReceiverID, input.Body, sender.EmergencyMode)
	if err != nil {
		return nil, err
	}

	if err := uc.messageRepo.Append(ctx, message); err != nil {
		logger.Error("SendText: Failed to append message from %s to %s: %v", senderID, input.ReceiverID, err)
		return nil, err
	}

	return message, nil
}

// SendImage appends an image-reference message. The upload that produced the
// URL happens before this call; an append failure leaves the caller to
// resend manually.
func (uc *MessagingUseCase) SendImage(ctx context.Context, senderID string, input SendImageInput) (*entity.Message, error) {
	if senderID == "" {
		return nil, errors.Unauthorized("Authentication required to send messages", nil)
	}
	if input.ReceiverID == "" {
		return nil, errors.Validation("No counterpart selected", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message")
	if !allowed {
		logger.Warn("SendImage rate limited: Participant %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	sender, err := uc.participantRepo.GetByID(ctx, senderID)
	if err != nil {
		logger.Error("SendImage: Sender %s not found: %v", senderID, err)
		return nil, errors.Unauthorized("Sender identity is not available", err)
	}

	message, err := entity.ComposeImage(sender, input.ReceiverID, input.ImageURL, sender.EmergencyMode)
	if err != nil {
		return nil, err
	}

	if err := uc.messageRepo.Append(ctx, message); err != nil {
		logger.Error("SendImage: Failed to append image message from %s to %s: %v", senderID, input.ReceiverID, err)
		return nil, err
	}

	return message, nil
}

// ToggleAck flips participantID's membership in a message's acknowledgedBy
// set. Present means remove, absent means add; applying it twice restores
// the original state. Other participants' membership is never touched.
func (uc *MessagingUseCase) ToggleAck(ctx context.Context, participantID, messageID string) (bool, error) {
	if participantID == "" {
		return false, errors.Unauthorized("Authentication required to acknowledge messages", nil)
	}
	if messageID == "" {
		return false, errors.BadRequest("Message is not yet confirmed by the store", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(participantID, "toggle_ack")
	if !allowed {
		logger.Warn("ToggleAck rate limited: Participant %s must wait %v", participantID, waitTime)
		return false, errors.TooManyRequests("Rate limit exceeded. Please wait before acknowledging again", waitTime)
	}

	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		logger.Error("ToggleAck: Message %s not found: %v", messageID, err)
		return false, err
	}

	if service.HasAcknowledged(message, participantID) {
		if err := uc.messageRepo.RemoveFromSet(ctx, messageID, entity.FieldAcknowledgedBy, participantID); err != nil {
			logger.Error("ToggleAck: Failed to remove %s from ack set of %s: %v", participantID, messageID, err)
			return false, err
		}
		return false, nil
	}

	if err := uc.messageRepo.AddToSet(ctx, messageID, entity.FieldAcknowledgedBy, participantID); err != nil {
		logger.Error("ToggleAck: Failed to add %s to ack set of %s: %v", participantID, messageID, err)
		return false, err
	}

	return true, nil
}

// React adds participantID to the deprecated one-way checkReactedBy set.
// There is no removal path; reacting again is a no-op.
func (uc *MessagingUseCase) React(ctx context.Context, participantID, messageID string) error {
	if participantID == "" {
		return errors.Unauthorized("Authentication required to react to messages", nil)
	}
	if messageID == "" {
		return errors.BadRequest("Message is not yet confirmed by the store", nil)
	}

	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		logger.Error("React: Message %s not found: %v", messageID, err)
		return err
	}

	for _, id := range message.CheckReactedBy {
		if id == participantID {
			return nil // Already reacted, removal is refused
		}
	}

	if err := uc.messageRepo.AddToSet(ctx, messageID, entity.FieldCheckReactedBy, participantID); err != nil {
		logger.Error("React: Failed to add %s to react set of %s: %v", participantID, messageID, err)
		return err
	}

	return nil
}

// MarkThreadSeen adds selfID to the seenBy set of every counterpart-authored
// message in the derived thread. Seen markers only grow; there is no toggle.
// Returns the number of messages newly marked.
func (uc *MessagingUseCase) MarkThreadSeen(ctx context.Context, selfID, counterpartID string) (int, error) {
	if selfID == "" {
		return 0, errors.Unauthorized("Authentication required to mark messages seen", nil)
	}

	self, counterpart, err := uc.resolvePair(ctx, selfID, counterpartID)
	if err != nil {
		return 0, err
	}

	messages, err := uc.messageRepo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	thread := service.DeriveThread(messages, self, counterpart)

	marked := 0
	for _, m := range thread {
		if m.SenderID == selfID || service.HasSeen(m, selfID) {
			continue
		}
		if err := uc.messageRepo.AddToSet(ctx, m.ID, entity.FieldSeenBy, selfID); err != nil {
			logger.Error("MarkThreadSeen: Failed to mark message %s seen by %s: %v", m.ID, selfID, err)
			return marked, err
		}
		marked++
	}

	return marked, nil
}

// GetThread returns the one-shot derived conversation between selfID and
// counterpartID, ordered ascending by createdAt.
func (uc *MessagingUseCase) GetThread(ctx context.Context, selfID, counterpartID string) ([]*entity.Message, error) {
	if selfID == "" {
		return nil, errors.Unauthorized("Authentication required to read conversations", nil)
	}

	self, counterpart, err := uc.resolvePair(ctx, selfID, counterpartID)
	if err != nil {
		return nil, err
	}

	messages, err := uc.messageRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	return service.DeriveThread(messages, self, counterpart), nil
}

func (uc *MessagingUseCase) resolvePair(ctx context.Context, selfID, counterpartID string) (*entity.Participant, *entity.Participant, error) {
	if counterpartID == "" {
		return nil, nil, errors.Validation("No counterpart selected", nil)
	}

	self, err := uc.participantRepo.GetByID(ctx, selfID)
	if err != nil {
		logger.Error("resolvePair: Participant %s not found: %v", selfID, err)
		return nil, nil, errors.Unauthorized("Participant identity is not available", err)
	}

	counterpart, err := uc.participantRepo.GetByID(ctx, counterpartID)
	if err != nil {
		logger.Error("resolvePair: Counterpart %s not found: %v", counterpartID, err)
		return nil, nil, errors.NotFound("Counterpart", err)
	}

	return self, counterpart, nil
}
