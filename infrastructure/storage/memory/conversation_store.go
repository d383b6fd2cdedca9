package memory

import (
	"context"
	"sync"

	"github.com/balizero/zantara-agentic/domain/conversation"
)

// ConversationStore keeps per-user history in process memory, capped at
// maxPerUser messages with the oldest dropped first.
type ConversationStore struct {
	mu         sync.RWMutex
	maxPerUser int
	histories  map[string]conversation.History
}

// DefaultMaxPerUser caps stored history per user.
const DefaultMaxPerUser = 200

// NewConversationStore creates an empty store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		maxPerUser: DefaultMaxPerUser,
		histories:  make(map[string]conversation.History),
	}
}

// Append adds messages to a user's history.
func (s *ConversationStore) Append(_ context.Context, userID string, messages ...conversation.Message) error {
	if userID == "" {
		return conversation.ErrEmptyUserID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	h := append(s.histories[userID], messages...)
	if len(h) > s.maxPerUser {
		h = append(conversation.History(nil), h[len(h)-s.maxPerUser:]...)
	}
	s.histories[userID] = h
	return nil
}

// Recent returns up to n most recent messages, oldest first.
func (s *ConversationStore) Recent(_ context.Context, userID string, n int) (conversation.History, error) {
	if userID == "" {
		return nil, conversation.ErrEmptyUserID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.histories[userID]
	if !ok {
		return nil, conversation.ErrNotFound
	}
	if n > 0 && len(h) > n {
		h = h[len(h)-n:]
	}
	return append(conversation.History(nil), h...), nil
}

// Clear removes a user's history.
func (s *ConversationStore) Clear(_ context.Context, userID string) error {
	if userID == "" {
		return conversation.ErrEmptyUserID
	}
	s.mu.Lock()
	delete(s.histories, userID)
	s.mu.Unlock()
	return nil
}
