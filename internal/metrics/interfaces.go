// Package metrics persists analysis results outside the routing path.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quantumflow/loremaster/internal/analysis"
	"github.com/quantumflow/loremaster/internal/models"
)

// Record is one persisted analysis run. Payload holds the full analysis
// JSON; the other fields are denormalized for querying.
type Record struct {
	Key             models.RunKey   `json:"key"`
	CreatedAt       time.Time       `json:"createdAt"`
	MessageCount    int             `json:"messageCount"`
	TopicStability  float64         `json:"topicStability"`
	DominantTopics  []string        `json:"dominantTopics"`
	Patterns        []string        `json:"patterns"`
	Recommendations []string        `json:"recommendations"`
	Payload         json.RawMessage `json:"payload"`
}

// NewRecord snapshots an analysis for persistence
func NewRecord(key models.RunKey, a analysis.ConversationAnalysis, at time.Time) (Record, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return Record{}, fmt.Errorf("failed to marshal analysis: %w", err)
	}

	patterns := make([]string, len(a.Patterns))
	for i, p := range a.Patterns {
		patterns[i] = string(p.Type())
	}

	return Record{
		Key:             key,
		CreatedAt:       at.UTC(),
		MessageCount:    a.MessageCount,
		TopicStability:  a.TopicStability,
		DominantTopics:  append([]string{}, a.DominantTopics...),
		Patterns:        patterns,
		Recommendations: append([]string{}, a.Recommendations...),
		Payload:         payload,
	}, nil
}

// Filter narrows a Query. Zero fields match everything.
type Filter struct {
	UserID     string
	CampaignID string
	ThreadID   string
	Since      time.Time
	Limit      int
}

func (f Filter) matches(r Record) bool {
	switch {
	case f.UserID != "" && r.Key.UserID != f.UserID:
		return false
	case f.CampaignID != "" && r.Key.CampaignID != f.CampaignID:
		return false
	case f.ThreadID != "" && r.Key.ThreadID != f.ThreadID:
		return false
	case !f.Since.IsZero() && r.CreatedAt.Before(f.Since):
		return false
	}
	return true
}

// Store persists analysis records
type Store interface {
	// Save writes a record; saving the same run id twice replaces it
	Save(ctx context.Context, record Record) error

	// Query returns matching records, newest first
	Query(ctx context.Context, filter Filter) ([]Record, error)

	// Close closes the underlying database
	Close() error
}

// Recorder accepts analyses without making the caller wait for storage
type Recorder interface {
	Record(key models.RunKey, a analysis.ConversationAnalysis)
	Close(ctx context.Context) error
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
