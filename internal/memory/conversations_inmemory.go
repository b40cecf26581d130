package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/quantumflow/loremaster/internal/models"
)

// InMemoryConversationStore is a process-local ConversationStore, used by
// the offline CLI and tests.
type InMemoryConversationStore struct {
	mu      sync.RWMutex
	threads map[string][]models.Message
}

func NewInMemoryConversationStore() *InMemoryConversationStore {
	return &InMemoryConversationStore{threads: make(map[string][]models.Message)}
}

func (s *InMemoryConversationStore) Append(_ context.Context, threadID string, messages ...models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[threadID] = append(s.threads[threadID], messages...)
	return nil
}

func (s *InMemoryConversationStore) Window(_ context.Context, threadID string, n int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.threads[threadID]
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	if n > 0 && len(messages) > n {
		messages = messages[len(messages)-n:]
	}
	return slices.Clone(messages), nil
}

func (s *InMemoryConversationStore) Threads(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]string, 0, len(s.threads))
	for id := range s.threads {
		threads = append(threads, id)
	}
	sort.Strings(threads)
	return threads, nil
}

func (s *InMemoryConversationStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[threadID]; !ok {
		return fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	delete(s.threads, threadID)
	return nil
}

func (s *InMemoryConversationStore) Close() error { return nil }
