// Package directory holds the Orbit directory: users, meetup requests, chat
// rooms and blocks, together with the rules that connect them.
//
// Every operation runs under one lock, so approval and blocking can read and
// write several collections without interleaving. Values returned to callers
// are copies and never alias directory memory.
package directory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/pkg/logger"
)

// Service is the in-memory Orbit directory
type Service struct {
	// pubMu serialises mutations together with the delivery of their
	// events. Lock order is pubMu then mu; readers take mu only.
	pubMu sync.Mutex
	mu    sync.Mutex

	users     map[uuid.UUID]*User
	userOrder []uuid.UUID

	requests     map[uuid.UUID]*MeetupRequest
	requestOrder []uuid.UUID

	rooms       map[uuid.UUID]*ChatRoom
	roomOrder   []uuid.UUID
	roomsByPair map[pair]uuid.UUID

	// blocker -> blocked ids in insertion order
	blocks map[uuid.UUID][]uuid.UUID

	currentUserID uuid.UUID

	subscribers []Subscriber

	now   func() time.Time
	newID func() uuid.UUID
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the id source
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates an empty directory
func NewService(opts ...Option) *Service {
	s := &Service{
		users:       make(map[uuid.UUID]*User),
		requests:    make(map[uuid.UUID]*MeetupRequest),
		rooms:       make(map[uuid.UUID]*ChatRoom),
		roomsByPair: make(map[pair]uuid.UUID),
		blocks:      make(map[uuid.UUID][]uuid.UUID),
		now:         time.Now,
		newID:       uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers sub for all future events. Publish may read from
// the directory but must not mutate it.
func (s *Service) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

// lockWrite takes the locks held by a mutation
func (s *Service) lockWrite() {
	s.pubMu.Lock()
	s.mu.Lock()
}

// unlockWrite releases a mutation that produced no events
func (s *Service) unlockWrite() {
	s.mu.Unlock()
	s.pubMu.Unlock()
}

// unlockAndPublish releases mu, delivers the events collected under it and
// then releases pubMu. Subscribers run without mu held, so they can read.
func (s *Service) unlockAndPublish(ctx context.Context, events []Event) {
	subs := append([]Subscriber(nil), s.subscribers...)
	s.mu.Unlock()
	defer s.pubMu.Unlock()

	if len(events) == 0 || len(subs) == 0 {
		return
	}
	for _, ev := range events {
		for _, sub := range subs {
			sub.Publish(ev)
		}
	}
	logger.LogDebug(ctx, "directory events published", "count", len(events))
}

func (s *Service) event(t EventType, actorID uuid.UUID, audience ...uuid.UUID) Event {
	return Event{
		Type:       t,
		ActorID:    actorID,
		Audience:   audience,
		OccurredAt: s.now(),
	}
}

// Stats is a point-in-time count of the directory collections
type Stats struct {
	Users    int `json:"users"`
	Requests int `json:"meetup_requests"`
	Rooms    int `json:"chat_rooms"`
	Blocks   int `json:"blocks"`
}

// Stats returns collection sizes
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocks := 0
	for _, blocked := range s.blocks {
		blocks += len(blocked)
	}
	return Stats{
		Users:    len(s.users),
		Requests: len(s.requests),
		Rooms:    len(s.rooms),
		Blocks:   blocks,
	}
}
