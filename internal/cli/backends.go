package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/quantumflow/loremaster/internal/agent"
	"github.com/quantumflow/loremaster/internal/config"
	"github.com/quantumflow/loremaster/internal/memory"
	"github.com/quantumflow/loremaster/internal/metrics"
)

const recorderDrainTimeout = 10 * time.Second

func memoryConfig() *memory.Config {
	mc := memory.DefaultConfig()
	mc.RedisURL = cfg.Redis.Addr
	mc.RedisPassword = cfg.Redis.Password
	mc.RedisDB = cfg.Redis.DB
	mc.RedisKeyPrefix = cfg.Redis.KeyPrefix
	mc.ThreadTTL = cfg.Redis.ThreadTTL
	mc.DgraphAlphaURL = cfg.Dgraph.AlphaAddr
	return mc
}

// openRegistry uses Dgraph when an alpha address is configured and the
// agents listed in the config file otherwise.
func openRegistry() (memory.AgentRegistry, error) {
	if cfg.Dgraph.AlphaAddr == "" {
		return agent.NewRegistry(cfg.Agents...), nil
	}

	registry, err := memory.NewDgraphAgentRegistry(memoryConfig())
	if err != nil {
		return nil, fmt.Errorf("open agent registry: %w", err)
	}
	onClose(registry.Close)
	return registry, nil
}

func openConversationStore() (memory.ConversationStore, error) {
	store, err := memory.NewRedisConversationStore(memoryConfig())
	if err != nil {
		return nil, fmt.Errorf("open conversation store: %w", err)
	}
	onClose(store.Close)
	return store, nil
}

// openMetricsStore returns nil when the metrics backend is disabled
func openMetricsStore() (metrics.Store, error) {
	var (
		store metrics.Store
		err   error
	)

	switch cfg.Metrics.Backend {
	case config.MetricsSQLite:
		store, err = metrics.NewSQLiteStore(cfg.Metrics.SQLitePath)
	case config.MetricsBadger:
		store, err = metrics.NewBadgerStore(cfg.Metrics.BadgerPath)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open metrics store: %w", err)
	}
	onClose(store.Close)
	return store, nil
}

// openRecorder starts the async recorder. It is drained before the metrics
// store closes because closers run in reverse.
func openRecorder() (metrics.Recorder, error) {
	store, err := openMetricsStore()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return metrics.NopRecorder{}, nil
	}

	recorder := metrics.NewAsyncRecorder(store, &metrics.RecorderConfig{
		QueueSize: cfg.Metrics.QueueSize,
		RateLimit: cfg.Metrics.RateLimit,
		Burst:     cfg.Metrics.Burst,
	}, logger)

	onClose(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), recorderDrainTimeout)
		defer cancel()
		return recorder.Close(ctx)
	})
	return recorder, nil
}

// openCache returns nil when caching is disabled
func openCache() (*agent.AnalysisCache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	cache, err := agent.NewAnalysisCache(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	if err != nil {
		return nil, err
	}
	onClose(func() error {
		cache.Close()
		return nil
	})
	return cache, nil
}
