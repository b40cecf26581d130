package agent

import (
	"context"
	"time"

	"github.com/quantumflow/loremaster/internal/analysis"
	"github.com/quantumflow/loremaster/internal/models"
)

// Analyzer produces routing analyses for stored threads
type Analyzer interface {
	Analyze(ctx context.Context, request *Request) (*Result, error)
}

// Request identifies the thread to analyze
type Request struct {
	UserID     string
	CampaignID string
	ThreadID   string
	WindowSize int // <= 0 uses the router default
}

// Result is the outcome of one analysis run
type Result struct {
	Key         models.RunKey
	Analysis    analysis.ConversationAnalysis
	Suggestions []Suggestion
	Cached      bool
	Duration    time.Duration
}

// Suggestion ranks an agent for the latest user message
type Suggestion struct {
	Agent   string   `json:"agent"`
	Score   float64  `json:"score"`
	Matched []string `json:"matched"`
}

// RouterConfig holds router configuration
type RouterConfig struct {
	WindowSize     int
	RequestTimeout time.Duration
}

// DefaultRouterConfig returns default router configuration
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		WindowSize:     analysis.DefaultWindowSize,
		RequestTimeout: 10 * time.Second,
	}
}
