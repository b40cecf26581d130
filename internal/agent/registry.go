package agent

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/quantumflow/loremaster/internal/memory"
	"github.com/quantumflow/loremaster/internal/models"
)

// Registry is an in-process AgentRegistry, usually seeded from config
type Registry struct {
	agents []models.AgentDefinition
	mu     sync.RWMutex
}

// NewRegistry creates a registry holding agents in the given order.
// Later duplicates replace the specialization of earlier ones.
func NewRegistry(agents ...models.AgentDefinition) *Registry {
	r := &Registry{}
	for _, a := range agents {
		r.upsert(a)
	}
	return r
}

// Register adds an agent, or updates the specialization of a known one
func (r *Registry) Register(_ context.Context, agent models.AgentDefinition) error {
	if agent.Name == "" {
		return fmt.Errorf("cannot register agent without a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsert(agent)
	return nil
}

func (r *Registry) upsert(agent models.AgentDefinition) {
	i := slices.IndexFunc(r.agents, func(a models.AgentDefinition) bool { return a.Name == agent.Name })
	if i >= 0 {
		r.agents[i].Specialization = agent.Specialization
		return
	}
	r.agents = append(r.agents, agent)
}

// Remove deletes an agent by name
func (r *Registry) Remove(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.agents, func(a models.AgentDefinition) bool { return a.Name == name })
	if i < 0 {
		return fmt.Errorf("%w: %s", memory.ErrAgentNotFound, name)
	}
	r.agents = slices.Delete(r.agents, i, i+1)
	return nil
}

// List returns all registered agents in registration order
func (r *Registry) List(_ context.Context) ([]models.AgentDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.agents), nil
}

func (r *Registry) Close() error { return nil }
