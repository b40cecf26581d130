package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/quantumflow/loremaster/internal/models"
)

// RedisConversationStore keeps each thread as a Redis list of JSON messages
type RedisConversationStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisConversationStore creates a new Redis-backed conversation store
func NewRedisConversationStore(config *Config) (*RedisConversationStore, error) {
	if config == nil {
		config = DefaultConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisURL,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisConversationStore{
		client: client,
		prefix: config.RedisKeyPrefix,
		ttl:    config.ThreadTTL,
	}, nil
}

func (s *RedisConversationStore) key(threadID string) string {
	return s.prefix + threadID
}

// Append pushes messages onto the thread list and refreshes its TTL
func (s *RedisConversationStore) Append(ctx context.Context, threadID string, messages ...models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	values := make([]interface{}, len(messages))
	for i, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message %s: %w", msg.ID, err)
		}
		values[i] = data
	}

	key := s.key(threadID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to thread %s: %w", threadID, err)
	}
	return nil
}

// Window returns the trailing n messages of a thread
func (s *RedisConversationStore) Window(ctx context.Context, threadID string, n int) ([]models.Message, error) {
	start := int64(0)
	if n > 0 {
		start = int64(-n)
	}

	raw, err := s.client.LRange(ctx, s.key(threadID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread %s: %w", threadID, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}

	messages := make([]models.Message, len(raw))
	for i, item := range raw {
		if err := json.Unmarshal([]byte(item), &messages[i]); err != nil {
			return nil, fmt.Errorf("failed to decode message %d of thread %s: %w", i, threadID, err)
		}
	}
	return messages, nil
}

// Threads scans for every thread key under the store prefix
func (s *RedisConversationStore) Threads(ctx context.Context) ([]string, error) {
	var threads []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		threads = append(threads, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan threads: %w", err)
	}
	return threads, nil
}

// Delete removes a thread
func (s *RedisConversationStore) Delete(ctx context.Context, threadID string) error {
	n, err := s.client.Del(ctx, s.key(threadID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete thread %s: %w", threadID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisConversationStore) Close() error {
	return s.client.Close()
}
