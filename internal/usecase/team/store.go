package team

import (
	"log/slog"
	"sync"
	"time"

	"agentteam/internal/domain"
)

// Store is the team's conversation registry. A global mutex guards the map;
// a per-conversation mutex serializes all mutation of one conversation, so
// concurrent messages to the same conversation apply in arrival order while
// different conversations proceed in parallel.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*entry
	language string
	maxSize  int // 0 = unbounded
	now      func() time.Time
	logger   *slog.Logger
}

type entry struct {
	mu   sync.Mutex
	conv *domain.Conversation
}

func NewStore(language string, maxSize int, logger *slog.Logger) *Store {
	return &Store{
		entries:  make(map[string]*entry),
		language: language,
		maxSize:  maxSize,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces the time source. For tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) entryFor(conversationID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[conversationID]
	if !ok {
		if s.maxSize > 0 && len(s.entries) >= s.maxSize {
			s.evictOldestLocked()
		}
		e = &entry{conv: domain.NewConversation(conversationID, s.language)}
		s.entries[conversationID] = e
	}
	return e
}

// evictOldestLocked removes the least recently updated conversation.
// Caller holds s.mu.
func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	first := true
	for id, e := range s.entries {
		if first || e.conv.UpdatedAt.Before(oldest) {
			oldestID, oldest = id, e.conv.UpdatedAt
			first = false
		}
	}
	if oldestID != "" {
		delete(s.entries, oldestID)
		s.logger.Info("conversation evicted at capacity", "conversation", oldestID)
	}
}

// Record appends a message to a conversation, creating it on first use,
// tracking the sender as a participant and deriving the topic on the first
// message. It returns a deep copy safe to read without further locking.
func (s *Store) Record(conversationID string, msg domain.ChatMessage) *domain.Conversation {
	e := s.entryFor(conversationID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.conv.Append(msg)
	e.conv.AddParticipant(msg.Sender)
	e.conv.SetTopicOnce(msg.Text)
	return e.conv.Clone()
}

// Get returns a copy of a conversation, or nil when it does not exist.
func (s *Store) Get(conversationID string) *domain.Conversation {
	s.mu.Lock()
	e, ok := s.entries[conversationID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conv.Clone()
}

// UpdateMood reclassifies a conversation's mood from a response confidence:
// high confidence lifts the mood, low confidence sinks it, the middle band
// leaves it unchanged.
func (s *Store) UpdateMood(conversationID string, confidence float64) {
	s.mu.Lock()
	e, ok := s.entries[conversationID]
	s.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case confidence >= 0.8:
		e.conv.Mood = domain.MoodPositive
	case confidence < 0.4:
		e.conv.Mood = domain.MoodNegative
	}
}

// EvictIdle removes conversations idle longer than ttl and reports how many
// were removed. A non-positive ttl is a no-op.
func (s *Store) EvictIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-ttl)
	removed := 0
	for id, e := range s.entries {
		if !e.conv.UpdatedAt.IsZero() && e.conv.UpdatedAt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("idle conversations evicted", "count", removed, "ttl", ttl)
	}
	return removed
}

// Len reports the number of live conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
