package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firedispatch/internal/domain/entity"
	"firedispatch/pkg/errors"
)

// fakeMessageRepo is an in-memory stand-in for the hosted document store:
// append-only log, atomic set mutation, full-snapshot broadcast.
type fakeMessageRepo struct {
	mu          sync.Mutex
	messages    []*entity.Message
	nextSeq     int
	appendErr   error
	subscribers map[int]*fakeSubscription
	allSubs     []*fakeSubscription
	nextSubID   int
}

type fakeSubscription struct {
	onSnapshot func([]*entity.Message)
	onError    func(error)
	canceled   bool
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{subscribers: make(map[int]*fakeSubscription)}
}

func (r *fakeMessageRepo) Append(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.appendErr != nil {
		return r.appendErr
	}

	r.nextSeq++
	message.ID = fmt.Sprintf("msg-%d", r.nextSeq)
	message.CreatedAt = time.Unix(int64(r.nextSeq), 0)
	r.messages = append(r.messages, message)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages {
		if m.ID == id {
			copied := *m
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *fakeMessageRepo) ListAll(ctx context.Context) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshotLocked(), nil
}

func (r *fakeMessageRepo) AddToSet(ctx context.Context, messageID, field, participantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.findLocked(messageID)
	if m == nil {
		return errors.NotFound("Message", nil)
	}

	set := r.fieldLocked(m, field)
	for _, id := range *set {
		if id == participantID {
			return nil
		}
	}
	*set = append(*set, participantID)
	return nil
}

func (r *fakeMessageRepo) RemoveFromSet(ctx context.Context, messageID, field, participantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.findLocked(messageID)
	if m == nil {
		return errors.NotFound("Message", nil)
	}

	set := r.fieldLocked(m, field)
	filtered := (*set)[:0]
	for _, id := range *set {
		if id != participantID {
			filtered = append(filtered, id)
		}
	}
	*set = filtered
	return nil
}

func (r *fakeMessageRepo) Subscribe(ctx context.Context, onSnapshot func([]*entity.Message), onError func(error)) func() {
	r.mu.Lock()
	r.nextSubID++
	id := r.nextSubID
	sub := &fakeSubscription{onSnapshot: onSnapshot, onError: onError}
	r.subscribers[id] = sub
	r.allSubs = append(r.allSubs, sub)
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	// Initial snapshot, as the store delivers on subscription open
	onSnapshot(snapshot)

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		sub.canceled = true
		delete(r.subscribers, id)
	}
}

// broadcast pushes the full current log to every live subscriber.
func (r *fakeMessageRepo) broadcast() {
	r.mu.Lock()
	snapshot := r.snapshotLocked()
	subs := make([]*fakeSubscription, 0, len(r.subscribers))
	for _, sub := range r.subscribers {
		subs = append(subs, sub)
	}
	r.mu.Unlock()

	for _, sub := range subs {
		sub.onSnapshot(snapshot)
	}
}

func (r *fakeMessageRepo) failSubscribers(err error) {
	r.mu.Lock()
	subs := make([]*fakeSubscription, 0, len(r.subscribers))
	for id, sub := range r.subscribers {
		subs = append(subs, sub)
		delete(r.subscribers, id)
	}
	r.mu.Unlock()

	for _, sub := range subs {
		sub.onError(err)
	}
}

// lastSubscriptionCanceled reports whether the most recently opened
// subscription had its cancel function invoked.
func (r *fakeMessageRepo) lastSubscriptionCanceled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.allSubs) == 0 {
		return false
	}
	return r.allSubs[len(r.allSubs)-1].canceled
}

func (r *fakeMessageRepo) activeSubscriptions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}

func (r *fakeMessageRepo) snapshotLocked() []*entity.Message {
	snapshot := make([]*entity.Message, len(r.messages))
	for i, m := range r.messages {
		copied := *m
		snapshot[i] = &copied
	}
	return snapshot
}

func (r *fakeMessageRepo) findLocked(id string) *entity.Message {
	for _, m := range r.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (r *fakeMessageRepo) fieldLocked(m *entity.Message, field string) *[]string {
	switch field {
	case entity.FieldAcknowledgedBy:
		return &m.AcknowledgedBy
	case entity.FieldCheckReactedBy:
		return &m.CheckReactedBy
	default:
		return &m.SeenBy
	}
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants map[string]*entity.Participant
}

func newFakeParticipantRepo(participants ...*entity.Participant) *fakeParticipantRepo {
	repo := &fakeParticipantRepo{participants: make(map[string]*entity.Participant)}
	for _, p := range participants {
		repo.participants[p.ID] = p
	}
	return repo
}

func (r *fakeParticipantRepo) GetByID(ctx context.Context, id string) (*entity.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return nil, errors.NotFound("Participant", nil)
	}
	copied := *p
	return &copied, nil
}

func (r *fakeParticipantRepo) SetEmergencyMode(ctx context.Context, id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return errors.NotFound("Participant", nil)
	}
	p.EmergencyMode = enabled
	return nil
}

func fixtureParticipants() (*entity.Participant, *entity.Participant) {
	citizen := &entity.Participant{ID: "citizen-1", Role: entity.RoleCitizen, DisplayName: "Ana Reyes"}
	station := &entity.Participant{ID: "station-1", Role: entity.RoleStation, DisplayName: "Station 12"}
	return citizen, station
}

func TestSendTextAndReceive(t *testing.T) {
	citizen, station := fixtureParticipants()
	messageRepo := newFakeMessageRepo()
	uc := NewMessagingUseCase(messageRepo, newFakeParticipantRepo(citizen, station))

	sent, err := uc.SendText(context.Background(), citizen.ID, SendTextInput{
		ReceiverID: station.ID,
		Body:       "Fire at 5th St",
	})
	require.NoError(t, err)
	require.NotEmpty(t, sent.ID)
	assert.False(t, sent.CreatedAt.IsZero())

	// The station derives its conversation with the citizen from the log
	thread, err := uc.GetThread(context.Background(), station.ID, citizen.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, "Fire at 5th St", thread[0].Body)
	assert.Equal(t, citizen.ID, thread[0].SenderID)
	assert.Equal(t, station.ID, thread[0].ReceiverID)
}

func TestSendTextCapturesEmergencyModeAtSendTime(t *testing.T) {
	citizen, station := fixtureParticipants()
	participantRepo := newFakeParticipantRepo(citizen, station)
	messageRepo := newFakeMessageRepo()
	uc := NewMessagingUseCase(messageRepo, participantRepo)

	require.NoError(t, participantRepo.SetEmergencyMode(context.Background(), citizen.ID, true))

	first, err := uc.SendText(context.Background(), citizen.ID, SendTextInput{ReceiverID: station.ID, Body: "help"})
	require.NoError(t, err)
	assert.True(t, first.IsEmergency)

	// Toggling the mode afterwards does not rewrite the sent message
	require.NoError(t, participantRepo.SetEmergencyMode(context.Background(), citizen.ID, false))

	second, err := uc.SendText(context.Background(), citizen.ID, SendTextInput{ReceiverID: station.ID, Body: "update"})
	require.NoError(t, err)
	assert.False(t, second.IsEmergency)

	stored, err := messageRepo.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsEmergency)
}

func TestSendTextRefusals(t *testing.T) {
	citizen, station := fixtureParticipants()
	uc := NewMessagingUseCase(newFakeMessageRepo(), newFakeParticipantRepo(citizen, station))

	_, err := uc.SendText(context.Background(), "", SendTextInput{ReceiverID: station.ID, Body: "hi"})
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))

	_, err = uc.SendText(context.Background(), citizen.ID, SendTextInput{ReceiverID: station.ID, Body: "   "})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))

	_, err = uc.SendText(context.Background(), citizen.ID, SendTextInput{ReceiverID: "", Body: "hi"})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
}

func TestSendTextAppendFailureIsSurfacedOnce(t *testing.T) {
	citizen, station := fixtureParticipants()
	messageRepo := newFakeMessageRepo()
	messageRepo.appendErr = errors.StoreWrite("Failed to append message", nil)
	uc := NewMessagingUseCase(messageRepo, newFakeParticipantRepo(citizen, station))

	_, err := uc.SendText(context.Background(), citizen.ID, SendTextInput{ReceiverID: station.ID, Body: "hi"})
	assert.True(t, errors.Is(err, "STORE_WRITE_ERROR"))

	// Nothing was queued for retry
	all, listErr := messageRepo.ListAll(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, all)
}

func TestSendImage(t *testing.T) {
	citizen, station := fixtureParticipants()
	uc := NewMessagingUseCase(newFakeMessageRepo(), newFakeParticipantRepo(citizen, station))

	sent, err := uc.SendImage(context.Background(), citizen.ID, SendImageInput{
		ReceiverID: station.ID,
		ImageURL:   "https://storage.googleapis.com/bucket/scene.jpg",
	})
	require.NoError(t, err)
	assert.Empty(t, sent.Body)
	assert.Equal(t, "https://storage.googleapis.com/bucket/scene.jpg", sent.ImageURL)

	_, err = uc.SendImage(context.Background(), citizen.ID, SendImageInput{ReceiverID: station.ID, ImageURL: ""})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
}

func TestToggleAckRoundTrip(t *testing.T) {
	citizen, station := fixtureParticipants()
	messageRepo := newFakeMessageRepo()
	uc := NewMessagingUseCase(messageRepo, newFakeParticipantRepo(citizen, station))

	sent, err := uc.SendText(context.Background(), citizen.ID, SendTextInput{ReceiverID: station.ID, Body: "ack me"})
	require.NoError(t, err)

	acked, err := uc.ToggleAck(context.Background(), station.ID, sent.ID)
	require.NoError(t, err)
	assert.True(t, acked)

	stored, err := messageRepo.GetByID(context.Background(), sent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{station.ID}, stored.AcknowledgedBy)

	// Toggling again restores the original membership
	acked, err = uc.ToggleAck(context.Background(), station.ID, sent.ID)
	require.NoError(t, err)
	assert.False(t, acked)

	stored, err = messageRepo.GetByID(context.Background(), sent.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.AcknowledgedBy)
}

func TestToggleAckDisjointness(t *testing.T) {
	citizen, station := fixtureParticipants()
	admin := &entity.Participant{ID: "admin-1", Role: entity.RoleAdmin, DisplayName: "Dispatch"}
	messageRepo := newFakeMessageRepo()
	uc := NewMessagingUseCase(messageRepo, newFakeParticipantRepo(citizen, station, admin))

	sent, err := uc.SendText(context.Background(), citizen.ID, SendTextInput{ReceiverID: station.ID, Body: "ack me"})
	require.NoError(t, err)

	_, err = uc.ToggleAck(context.Background(), station.ID, sent.ID)
	require.NoError(t, err)
	_, err = uc.ToggleAck(context.Background(), admin.ID, sent.ID)
	require.NoError(t, err)

	// Station toggling off never touches the admin's membership
	_, err = uc.ToggleAck(context.Background(), station.ID, sent.ID)
	require.NoError(t, err)

	stored, err := messageRepo.GetByID(context.Background(), sent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{admin.ID}, stored.AcknowledgedBy)
}

func TestToggleAckRefusals(t *testing.T) {
	citizen, station := fixtureParticipants()
	uc := NewMessagingUseCase(newFakeMessageRepo(), newFakeParticipantRepo(citizen, station))

	_, err := uc.ToggleAck(context.Background(), "", "msg-1")
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))

	// An unconfirmed message has no id yet; the toggle is refused locally
	_, err = uc.ToggleAck(context.Background(), station.ID, "")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestReactIsOneWay(t *testing.T) {
	citizen, station := fixtureParticipants()
	messageRepo := newFakeMessageRepo()
	uc := NewMessagingUseCase(messageRepo, newFakeParticipantRepo(citizen, station))

	sent, err := uc.SendText(context.Background(), citizen.ID, SendTextInput{ReceiverID: station.ID, Body: "react"})
	require.NoError(t, err)

	require.NoError(t, uc.React(context.Background(), station.ID, sent.ID))
	require.NoError(t, uc.React(context.Background(), station.ID, sent.ID)) // no-op, never removed

	stored, err := messageRepo.GetByID(context.Background(), sent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{station.ID}, stored.CheckReactedBy)
}

func TestMarkThreadSeen(t *testing.T) {
	citizen, station := fixtureParticipants()
	messageRepo := newFakeMessageRepo()
	uc := NewMessagingUseCase(messageRepo, newFakeParticipantRepo(citizen, station))

	first, err := uc.SendText(context.Background(), citizen.ID, SendTextInput{ReceiverID: station.ID, Body: "one"})
	require.NoError(t, err)
	_, err = uc.SendText(context.Background(), station.ID, SendTextInput{ReceiverID: citizen.ID, Body: "two"})
	require.NoError(t, err)

	marked, err := uc.MarkThreadSeen(context.Background(), station.ID, citizen.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, marked) // only the citizen's message; own messages skipped

	stored, err := messageRepo.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.SeenBy, station.ID)

	// Marking again is a no-op
	marked, err = uc.MarkThreadSeen(context.Background(), station.ID, citizen.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, marked)
}
