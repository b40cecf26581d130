package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quantumflow/loremaster/internal/analysis"
	"github.com/quantumflow/loremaster/internal/memory"
	"github.com/quantumflow/loremaster/internal/metrics"
	"github.com/quantumflow/loremaster/internal/models"
)

// Router loads a thread and its candidate agents, analyzes the recent window
// and hands the result to a metrics recorder without waiting for it. It
// never picks the next agent itself.
type Router struct {
	registry memory.AgentRegistry
	store    memory.ConversationStore
	recorder metrics.Recorder
	cache    *AnalysisCache
	config   *RouterConfig
	logger   *slog.Logger
}

// NewRouter creates a router. cache may be nil to disable caching; a nil
// recorder discards results.
func NewRouter(
	config *RouterConfig,
	registry memory.AgentRegistry,
	store memory.ConversationStore,
	recorder metrics.Recorder,
	cache *AnalysisCache,
	logger *slog.Logger,
) *Router {
	if config == nil {
		config = DefaultRouterConfig()
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{
		registry: registry,
		store:    store,
		recorder: recorder,
		cache:    cache,
		config:   config,
		logger:   logger.With("component", "router"),
	}
}

// Analyze runs the conversation analysis for one thread. A thread with no
// stored messages yields the empty-window analysis rather than an error.
func (r *Router) Analyze(ctx context.Context, request *Request) (*Result, error) {
	start := time.Now()

	if request == nil || request.ThreadID == "" {
		return nil, fmt.Errorf("thread id is required")
	}

	windowSize := request.WindowSize
	if windowSize <= 0 {
		windowSize = r.config.WindowSize
	}

	if r.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.RequestTimeout)
		defer cancel()
	}

	agents, err := r.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load agents: %w", err)
	}

	messages, err := r.store.Window(ctx, request.ThreadID, windowSize)
	switch {
	case errors.Is(err, memory.ErrThreadNotFound):
		r.logger.Debug("thread has no history", "thread_id", request.ThreadID)
		messages = nil
	case err != nil:
		return nil, fmt.Errorf("failed to load thread %s: %w", request.ThreadID, err)
	}

	result := &Result{
		Key: models.RunKey{
			UserID:     request.UserID,
			CampaignID: request.CampaignID,
			ThreadID:   request.ThreadID,
			RunID:      uuid.NewString(),
		},
	}

	fingerprint := Fingerprint(agents, messages, windowSize)
	if cached, ok := r.cachedAnalysis(fingerprint); ok {
		result.Analysis = cached
		result.Cached = true
	} else {
		result.Analysis = analysis.Analyze(messages, agents, windowSize)
		if r.cache != nil {
			r.cache.Set(fingerprint, result.Analysis)
		}
	}

	result.Suggestions = Suggest(messages, agents)
	r.recorder.Record(result.Key, result.Analysis)
	result.Duration = time.Since(start)

	r.logger.Info("thread analyzed",
		"run_id", result.Key.RunID,
		"thread_id", request.ThreadID,
		"messages", result.Analysis.MessageCount,
		"patterns", len(result.Analysis.Patterns),
		"cached", result.Cached,
		"duration", result.Duration)

	return result, nil
}

func (r *Router) cachedAnalysis(fingerprint uint64) (analysis.ConversationAnalysis, bool) {
	if r.cache == nil {
		return analysis.ConversationAnalysis{}, false
	}
	return r.cache.Get(fingerprint)
}

// Agents returns the registered agents
func (r *Router) Agents(ctx context.Context) ([]models.AgentDefinition, error) {
	return r.registry.List(ctx)
}
