package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumflow/loremaster/internal/models"
)

func sampleMessages(n int) []models.Message {
	base := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	msgs := make([]models.Message, n)
	for i := range msgs {
		msgs[i] = models.Message{
			ID:        fmt.Sprintf("msg-%d", i+1),
			Content:   fmt.Sprintf("message %d", i+1),
			Role:      models.RoleUser,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	msgs[n-1].Role = models.RoleAssistant
	msgs[n-1].RoutingMetadata = &models.RoutingMetadata{
		Decision: &models.RoutingDecision{
			TargetAgent:    "location-agent",
			Confidence:     0.82,
			Reasoning:      "mentions dungeons",
			IntentKeywords: []string{"dungeons"},
		},
		ExecutionTime: 340.5,
		Success:       true,
	}
	return msgs
}

// exerciseConversationStore runs the shared contract against any store
func exerciseConversationStore(t *testing.T, store ConversationStore) {
	ctx := context.Background()
	thread := "thread-" + uuid.NewString()
	t.Cleanup(func() { _ = store.Delete(ctx, thread) })

	_, err := store.Window(ctx, thread, 5)
	require.ErrorIs(t, err, ErrThreadNotFound)

	msgs := sampleMessages(12)
	require.NoError(t, store.Append(ctx, thread, msgs[:7]...))
	require.NoError(t, store.Append(ctx, thread, msgs[7:]...))
	require.NoError(t, store.Append(ctx, thread))

	window, err := store.Window(ctx, thread, 10)
	require.NoError(t, err)
	require.Len(t, window, 10)
	assert.Equal(t, "msg-3", window[0].ID)
	assert.Equal(t, "msg-12", window[9].ID)
	assert.Equal(t, "location-agent", window[9].TargetAgent())
	assert.True(t, window[9].CreatedAt.Equal(msgs[11].CreatedAt))

	all, err := store.Window(ctx, thread, 0)
	require.NoError(t, err)
	assert.Len(t, all, 12)

	threads, err := store.Threads(ctx)
	require.NoError(t, err)
	assert.Contains(t, threads, thread)

	require.NoError(t, store.Delete(ctx, thread))
	_, err = store.Window(ctx, thread, 5)
	require.ErrorIs(t, err, ErrThreadNotFound)
	require.ErrorIs(t, store.Delete(ctx, thread), ErrThreadNotFound)
}

func TestInMemoryConversationStore(t *testing.T) {
	exerciseConversationStore(t, NewInMemoryConversationStore())
}

func TestInMemoryConversationStore_WindowIsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryConversationStore()
	require.NoError(t, store.Append(ctx, "t", sampleMessages(3)...))

	window, err := store.Window(ctx, "t", 3)
	require.NoError(t, err)
	window[0].Content = "edited"

	again, err := store.Window(ctx, "t", 3)
	require.NoError(t, err)
	assert.Equal(t, "message 1", again[0].Content)
}

// TestRedisConversationStore requires a running Redis
func TestRedisConversationStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	config := DefaultConfig()
	config.RedisKeyPrefix = "loremaster:test:"
	config.ConnectTimeout = time.Second

	store, err := NewRedisConversationStore(config)
	if err != nil {
		t.Logf("Skipping test - Redis not available: %v", err)
		t.Skip()
	}
	defer store.Close()

	exerciseConversationStore(t, store)
}

// TestDgraphAgentRegistry requires a running Dgraph alpha
func TestDgraphAgentRegistry(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	config := DefaultConfig()
	config.ConnectTimeout = 2 * time.Second

	registry, err := NewDgraphAgentRegistry(config)
	if err != nil {
		t.Logf("Skipping test - Dgraph not available: %v", err)
		t.Skip()
	}
	defer registry.Close()

	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	first := models.AgentDefinition{Name: "character-" + suffix, Specialization: "character creation"}
	second := models.AgentDefinition{Name: "location-" + suffix, Specialization: "towns and dungeons"}
	t.Cleanup(func() {
		_ = registry.Remove(ctx, first.Name)
		_ = registry.Remove(ctx, second.Name)
	})

	require.NoError(t, registry.Register(ctx, first))
	require.NoError(t, registry.Register(ctx, second))

	first.Specialization = "character creation and management"
	require.NoError(t, registry.Register(ctx, first))

	agents, err := registry.List(ctx)
	require.NoError(t, err)

	var ours []models.AgentDefinition
	for _, a := range agents {
		if a.Name == first.Name || a.Name == second.Name {
			ours = append(ours, a)
		}
	}
	assert.Equal(t, []models.AgentDefinition{first, second}, ours)

	require.NoError(t, registry.Remove(ctx, second.Name))
	require.ErrorIs(t, registry.Remove(ctx, second.Name), ErrAgentNotFound)
}
