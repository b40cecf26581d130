package agent

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"

	"github.com/quantumflow/loremaster/internal/analysis"
	"github.com/quantumflow/loremaster/internal/models"
)

// AnalysisCache provides TTL-based caching of analyses keyed by a
// fingerprint of the inputs. Cached values are shared; callers must not
// modify them.
type AnalysisCache struct {
	cache *ristretto.Cache[uint64, analysis.ConversationAnalysis]
	ttl   time.Duration
}

// NewAnalysisCache creates a cache holding at most maxEntries analyses
func NewAnalysisCache(ttl time.Duration, maxEntries int64) (*AnalysisCache, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", maxEntries)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[uint64, analysis.ConversationAnalysis]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis cache: %w", err)
	}

	return &AnalysisCache{cache: cache, ttl: ttl}, nil
}

// Get retrieves a cached analysis if still valid
func (c *AnalysisCache) Get(fingerprint uint64) (analysis.ConversationAnalysis, bool) {
	return c.cache.Get(fingerprint)
}

// Set stores an analysis. The write is visible to Get once it returns.
func (c *AnalysisCache) Set(fingerprint uint64, a analysis.ConversationAnalysis) {
	c.cache.SetWithTTL(fingerprint, a, 1, c.ttl)
	c.cache.Wait()
}

// Close stops the cache's background goroutines
func (c *AnalysisCache) Close() {
	c.cache.Close()
}

// Fingerprint hashes everything Analyze reads: the agent definitions, the
// window size and, per message, its id, role, content and routing outcome.
func Fingerprint(agents []models.AgentDefinition, messages []models.Message, windowSize int) uint64 {
	d := xxhash.New()
	write := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}

	write(strconv.Itoa(windowSize))
	for _, a := range agents {
		write(a.Name)
		write(a.Specialization)
	}
	write("--")
	for _, m := range messages {
		write(m.ID)
		write(string(m.Role))
		write(m.Content)
		write(m.TargetAgent())
		switch {
		case m.RoutingMetadata == nil:
			write("-")
		case m.RoutingMetadata.Success:
			write("ok")
		default:
			write("failed")
		}
	}
	return d.Sum64()
}
