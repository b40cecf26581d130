package memory

import (
	"context"
	"errors"
	"time"

	"github.com/quantumflow/loremaster/internal/models"
)

var (
	// ErrThreadNotFound is returned when a thread has no stored messages
	ErrThreadNotFound = errors.New("thread not found")

	// ErrAgentNotFound is returned when removing an unknown agent
	ErrAgentNotFound = errors.New("agent not found")
)

// ConversationStore holds the message history of campaign threads
type ConversationStore interface {
	// Append adds messages to the end of a thread
	Append(ctx context.Context, threadID string, messages ...models.Message) error

	// Window returns the last n messages of a thread in chronological order.
	// n <= 0 returns the whole thread.
	Window(ctx context.Context, threadID string, n int) ([]models.Message, error)

	// Threads lists the ids of every stored thread
	Threads(ctx context.Context) ([]string, error)

	// Delete removes a thread
	Delete(ctx context.Context, threadID string) error

	// Close closes the store connection
	Close() error
}

// AgentRegistry holds the agent definitions available for routing.
// List returns agents in registration order.
type AgentRegistry interface {
	Register(ctx context.Context, agent models.AgentDefinition) error
	Remove(ctx context.Context, name string) error
	List(ctx context.Context) ([]models.AgentDefinition, error)
	Close() error
}

// Config holds connection settings for the Redis and Dgraph backends
type Config struct {
	// Redis configuration
	RedisURL       string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	ThreadTTL      time.Duration

	// Dgraph configuration
	DgraphAlphaURL string

	// ConnectTimeout bounds the initial connectivity check
	ConnectTimeout time.Duration
}

// DefaultConfig returns default memory configuration
func DefaultConfig() *Config {
	return &Config{
		RedisURL:       "localhost:6379",
		RedisDB:        0,
		RedisKeyPrefix: "loremaster:thread:",
		ThreadTTL:      30 * 24 * time.Hour,
		DgraphAlphaURL: "localhost:9080",
		ConnectTimeout: 5 * time.Second,
	}
}
