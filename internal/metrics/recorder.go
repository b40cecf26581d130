package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/quantumflow/loremaster/internal/analysis"
	"github.com/quantumflow/loremaster/internal/models"
)

// RecorderConfig holds dispatcher configuration
type RecorderConfig struct {
	QueueSize    int           // pending records before new ones are dropped
	RateLimit    float64       // saves per second, <= 0 for unlimited
	Burst        int           // saves allowed above the rate
	WriteTimeout time.Duration // bound on a single Save
}

// DefaultRecorderConfig returns default dispatcher configuration
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		QueueSize:    256,
		RateLimit:    50,
		Burst:        10,
		WriteTimeout: 5 * time.Second,
	}
}

// RecorderStats counts what happened to submitted analyses
type RecorderStats struct {
	Submitted int64
	Saved     int64
	Failed    int64
	Dropped   int64
}

type job struct {
	key models.RunKey
	at  time.Time
	a   analysis.ConversationAnalysis
}

// AsyncRecorder hands analyses to a single background worker that saves
// them to a Store. Storage errors are logged and never reach the caller.
type AsyncRecorder struct {
	store   Store
	logger  *slog.Logger
	limiter *rate.Limiter
	timeout time.Duration
	queue   chan job
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.RWMutex
	closed bool
	stats  RecorderStats
}

// NewAsyncRecorder starts the worker. A nil logger uses slog.Default().
func NewAsyncRecorder(store Store, config *RecorderConfig, logger *slog.Logger) *AsyncRecorder {
	if config == nil {
		config = DefaultRecorderConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	burst := max(1, config.Burst)

	timeout := config.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	r := &AsyncRecorder{
		store:   store,
		logger:  logger.With("component", "metrics"),
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
		queue:   make(chan job, max(1, config.QueueSize)),
		ctx:     ctx,
		cancel:  cancel,
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// Record enqueues an analysis and returns immediately. When the queue is
// full or the recorder is closed the analysis is dropped.
func (r *AsyncRecorder) Record(key models.RunKey, a analysis.ConversationAnalysis) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.Submitted++
	if r.closed {
		r.stats.Dropped++
		r.logger.Warn("recorder closed, dropping analysis", "run_id", key.RunID)
		return
	}

	select {
	case r.queue <- job{key: key, at: time.Now(), a: a}:
	default:
		r.stats.Dropped++
		r.logger.Warn("metrics queue full, dropping analysis", "run_id", key.RunID, "thread_id", key.ThreadID)
	}
}

func (r *AsyncRecorder) worker() {
	defer r.wg.Done()

	for j := range r.queue {
		if err := r.limiter.Wait(r.ctx); err != nil {
			r.count(func(s *RecorderStats) { s.Dropped++ })
			r.logger.Warn("recorder stopped before save", "run_id", j.key.RunID, "error", err)
			continue
		}
		r.save(j)
	}
}

func (r *AsyncRecorder) save(j job) {
	record, err := NewRecord(j.key, j.a, j.at)
	if err == nil {
		ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
		err = r.store.Save(ctx, record)
		cancel()
	}

	if err != nil {
		r.count(func(s *RecorderStats) { s.Failed++ })
		r.logger.Error("failed to record analysis",
			"run_id", j.key.RunID,
			"thread_id", j.key.ThreadID,
			"error", err)
		return
	}

	r.count(func(s *RecorderStats) { s.Saved++ })
	r.logger.Debug("analysis recorded", "run_id", j.key.RunID, "patterns", len(j.a.Patterns))
}

func (r *AsyncRecorder) count(update func(*RecorderStats)) {
	r.mu.Lock()
	update(&r.stats)
	r.mu.Unlock()
}

// Stats returns a snapshot of the dispatcher counters
func (r *AsyncRecorder) Stats() RecorderStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// Close stops accepting analyses and waits for queued ones to be saved.
// If ctx expires first, pending saves are abandoned and ctx.Err() is returned.
func (r *AsyncRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}

// NopRecorder discards every analysis
type NopRecorder struct{}

func (NopRecorder) Record(models.RunKey, analysis.ConversationAnalysis) {}
func (NopRecorder) Close(context.Context) error                         { return nil }
