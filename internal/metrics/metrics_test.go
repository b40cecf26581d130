package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumflow/loremaster/internal/analysis"
	"github.com/quantumflow/loremaster/internal/models"
)

var recordTime = time.Date(2025, 4, 2, 20, 0, 0, 0, time.UTC)

func sampleAnalysis() analysis.ConversationAnalysis {
	agents := []models.AgentDefinition{{Name: "rules-agent", Specialization: "dice and combat"}}
	msgs := []models.Message{
		{Role: models.RoleUser, Content: "roll the dice"},
		{Role: models.RoleAssistant, Content: "timeout", RoutingMetadata: &models.RoutingMetadata{
			Decision: &models.RoutingDecision{TargetAgent: "rules-agent"},
		}},
		{Role: models.RoleUser, Content: "again"},
		{Role: models.RoleAssistant, Content: "timeout", RoutingMetadata: &models.RoutingMetadata{
			Decision: &models.RoutingDecision{TargetAgent: "rules-agent"},
		}},
	}
	return analysis.Analyze(msgs, agents, 10)
}

func runKey(thread, run string) models.RunKey {
	return models.RunKey{UserID: "u-1", CampaignID: "c-1", ThreadID: thread, RunID: run}
}

func TestNewRecord(t *testing.T) {
	a := sampleAnalysis()
	rec, err := NewRecord(runKey("t-1", "r-1"), a, recordTime)
	require.NoError(t, err)

	assert.Equal(t, 4, rec.MessageCount)
	assert.Equal(t, []string{"repeated_failures"}, rec.Patterns)
	assert.Equal(t, a.Recommendations, rec.Recommendations)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Payload, &payload))
	assert.Equal(t, 4.0, payload["messageCount"])
}

// exerciseStore runs the shared contract against any Store
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	a := sampleAnalysis()

	save := func(key models.RunKey, offset time.Duration) {
		rec, err := NewRecord(key, a, recordTime.Add(offset))
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, rec))
	}

	save(runKey("t-1", "r-1"), 0)
	save(runKey("t-1", "r-2"), time.Minute)
	save(runKey("t-2", "r-3"), 2*time.Minute)
	other := runKey("t-1", "r-4")
	other.UserID = "u-2"
	save(other, 3*time.Minute)

	all, err := store.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "r-4", all[0].Key.RunID)
	assert.Equal(t, "r-1", all[3].Key.RunID)

	thread, err := store.Query(ctx, Filter{ThreadID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r-4", "r-2", "r-1"}, runIDs(thread))

	user, err := store.Query(ctx, Filter{UserID: "u-1", ThreadID: "t-1", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"r-2"}, runIDs(user))

	recent, err := store.Query(ctx, Filter{Since: recordTime.Add(90 * time.Second)})
	require.NoError(t, err)
	assert.Equal(t, []string{"r-4", "r-3"}, runIDs(recent))

	got := thread[2]
	assert.Equal(t, runKey("t-1", "r-1"), got.Key)
	assert.True(t, got.CreatedAt.Equal(recordTime))
	assert.Equal(t, a.MessageCount, got.MessageCount)
	assert.Equal(t, a.TopicStability, got.TopicStability)
	assert.Equal(t, []string{"repeated_failures"}, got.Patterns)
	assert.Equal(t, a.Recommendations, got.Recommendations)
	assert.JSONEq(t, string(mustJSON(t, a)), string(got.Payload))

	// saving a run again replaces it
	save(runKey("t-1", "r-1"), 10*time.Minute)
	thread, err = store.Query(ctx, Filter{ThreadID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r-1", "r-4", "r-2"}, runIDs(thread))

	none, err := store.Query(ctx, Filter{ThreadID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func runIDs(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.Key.RunID
	}
	return ids
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "metrics", "analysis.db"))
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestBadgerStore(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestInMemoryBadgerStore(t *testing.T) {
	store, err := NewInMemoryBadgerStore()
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

// fakeStore records saves and can be made to fail or block
type fakeStore struct {
	mu      sync.Mutex
	saved   []Record
	err     error
	release chan struct{}
}

func (f *fakeStore) Save(ctx context.Context, record Record) error {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, record)
	return nil
}

func (f *fakeStore) Query(context.Context, Filter) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Record{}, f.saved...), nil
}

func (f *fakeStore) Close() error { return nil }

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestAsyncRecorder_SavesEverythingOnClose(t *testing.T) {
	store := &fakeStore{}
	var logs bytes.Buffer
	rec := NewAsyncRecorder(store, &RecorderConfig{QueueSize: 16}, quietLogger(&logs))

	a := sampleAnalysis()
	for _, run := range []string{"r-1", "r-2", "r-3"} {
		rec.Record(runKey("t-1", run), a)
	}
	require.NoError(t, rec.Close(context.Background()))

	saved, _ := store.Query(context.Background(), Filter{})
	assert.Equal(t, []string{"r-1", "r-2", "r-3"}, runIDs(saved))
	assert.Equal(t, RecorderStats{Submitted: 3, Saved: 3}, rec.Stats())

	// closing twice is harmless and later records are dropped
	require.NoError(t, rec.Close(context.Background()))
	rec.Record(runKey("t-1", "r-4"), a)
	assert.Equal(t, int64(1), rec.Stats().Dropped)
}

func TestAsyncRecorder_StoreErrorsAreSwallowed(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	var logs bytes.Buffer
	rec := NewAsyncRecorder(store, nil, quietLogger(&logs))

	rec.Record(runKey("t-1", "r-1"), sampleAnalysis())
	require.NoError(t, rec.Close(context.Background()))

	assert.Equal(t, int64(1), rec.Stats().Failed)
	assert.Contains(t, logs.String(), "failed to record analysis")
	assert.Contains(t, logs.String(), "disk full")
}

func TestAsyncRecorder_DropsWhenQueueFull(t *testing.T) {
	store := &fakeStore{release: make(chan struct{})}
	var logs bytes.Buffer
	rec := NewAsyncRecorder(store, &RecorderConfig{QueueSize: 1}, quietLogger(&logs))

	a := sampleAnalysis()
	start := time.Now()
	for i := range 20 {
		rec.Record(runKey("t-1", string(rune('a'+i))), a)
	}
	assert.Less(t, time.Since(start), time.Second, "Record must not block on a slow store")

	close(store.release)
	require.NoError(t, rec.Close(context.Background()))

	stats := rec.Stats()
	assert.Equal(t, int64(20), stats.Submitted)
	assert.Positive(t, stats.Dropped)
	assert.Equal(t, stats.Submitted, stats.Saved+stats.Dropped)
	assert.Contains(t, logs.String(), "metrics queue full")
}

func TestAsyncRecorder_CloseDeadline(t *testing.T) {
	store := &fakeStore{release: make(chan struct{})}
	var logs bytes.Buffer
	rec := NewAsyncRecorder(store, &RecorderConfig{QueueSize: 4}, quietLogger(&logs))

	rec.Record(runKey("t-1", "r-1"), sampleAnalysis())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rec.Close(ctx), context.DeadlineExceeded)
	assert.Zero(t, rec.Stats().Saved)
}

func TestNopRecorder(t *testing.T) {
	var rec Recorder = NopRecorder{}
	rec.Record(runKey("t", "r"), sampleAnalysis())
	assert.NoError(t, rec.Close(context.Background()))
}
