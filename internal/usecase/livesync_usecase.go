package usecase

import (
	"context"
	"sync"

	"firedispatch/internal/domain/entity"
	"firedispatch/internal/domain/repository"
	"firedispatch/internal/domain/service"
	"firedispatch/pkg/logger"
)

// ThreadEvent is one rendered-thread update delivered to a session. Appended
// is true only when the thread grew at the tail, so clients can auto-scroll
// on new messages without jumping the viewport on ack/seen-only mutations.
type ThreadEvent struct {
	Messages []*entity.Message `json:"messages"`
	Appended bool              `json:"appended"`
}

// ThreadSession keeps one participant's rendered thread consistent with the
// live message log. It holds at most one store subscription at a time:
// selecting a counterpart cancels the previous subscription and clears the
// thread before the first filtered snapshot for the new counterpart arrives,
// so two live subscriptions never write into the same rendered state.
type ThreadSession struct {
	messageRepo repository.MessageRepository
	self        *entity.Participant
	onThread    func(ThreadEvent)
	onError     func(error)

	mu          sync.Mutex
	cancel      func()
	counterpart *entity.Participant
	generation  uint64
	lastLen     int

	// emitMu orders callback emission with respect to Select and Deselect.
	// The generation check and the emission happen under it as one step, so
	// a snapshot derived for the previous counterpart can never render
	// after the switch's clear event.
	emitMu sync.Mutex
}

func NewThreadSession(
	messageRepo repository.MessageRepository,
	self *entity.Participant,
	onThread func(ThreadEvent),
	onError func(error),
) *ThreadSession {
	return &ThreadSession{
		messageRepo: messageRepo,
		self:        self,
		onThread:    onThread,
		onError:     onError,
	}
}

// Select switches the active counterpart. The previously displayed thread is
// cleared immediately, then repopulated from the first snapshot of the new
// subscription.
func (s *ThreadSession) Select(ctx context.Context, counterpart *entity.Participant) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	generation := s.generation
	s.counterpart = counterpart
	s.lastLen = 0
	s.mu.Unlock()

	// Blocks until any in-flight emission for the previous counterpart has
	// been delivered, then clears before the new subscription opens.
	s.emitMu.Lock()
	s.onThread(ThreadEvent{Messages: []*entity.Message{}})
	s.emitMu.Unlock()

	cancel := s.messageRepo.Subscribe(ctx,
		func(snapshot []*entity.Message) {
			s.handleSnapshot(generation, snapshot)
		},
		func(err error) {
			s.handleError(generation, err)
		},
	)

	s.mu.Lock()
	if s.generation == generation {
		s.cancel = cancel
	} else {
		// A newer selection won the race; drop this subscription.
		cancel()
	}
	s.mu.Unlock()
}

// Deselect cancels the active subscription and clears the rendered thread.
// No further updates are delivered until the next Select.
func (s *ThreadSession) Deselect() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.counterpart = nil
	s.lastLen = 0
	s.mu.Unlock()

	s.emitMu.Lock()
	s.onThread(ThreadEvent{Messages: []*entity.Message{}})
	s.emitMu.Unlock()
}

// Close tears the session down. Unlike Deselect it emits nothing.
func (s *ThreadSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.counterpart = nil
}

func (s *ThreadSession) handleSnapshot(generation uint64, snapshot []*entity.Message) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.generation != generation || s.counterpart == nil {
		s.mu.Unlock()
		return // Stale subscription
	}

	thread := service.DeriveThread(snapshot, s.self, s.counterpart)
	appended := len(thread) > s.lastLen
	s.lastLen = len(thread)
	s.mu.Unlock()

	s.onThread(ThreadEvent{Messages: thread, Appended: appended})
}

func (s *ThreadSession) handleError(generation uint64, err error) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return
	}
	// Surfaced once; the subscription is not renewed. The participant must
	// reselect the counterpart to subscribe again.
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.mu.Unlock()

	logger.Warn("ThreadSession: subscription for participant %s terminated: %v", s.self.ID, err)
	s.onError(err)
}
