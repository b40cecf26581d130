package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/dgo/v230"
	"github.com/dgraph-io/dgo/v230/protos/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/quantumflow/loremaster/internal/models"
)

const agentSchema = `
	type Agent {
		agent.name
		agent.specialization
		agent.registered
	}

	agent.name: string @index(exact) @upsert .
	agent.specialization: string .
	agent.registered: datetime @index(hour) .
`

// agentByName binds v to the node carrying the given agent name
const agentByName = `query agent($name: string) {
	agent(func: eq(agent.name, $name)) {
		v as uid
	}
}`

// DgraphAgentRegistry stores agent definitions as Dgraph nodes, one per name
type DgraphAgentRegistry struct {
	client *dgo.Dgraph
	conn   *grpc.ClientConn
}

// NewDgraphAgentRegistry connects to a Dgraph alpha and installs the agent schema
func NewDgraphAgentRegistry(config *Config) (*DgraphAgentRegistry, error) {
	if config == nil {
		config = DefaultConfig()
	}

	conn, err := grpc.Dial(config.DgraphAlphaURL, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Dgraph: %w", err)
	}

	registry := &DgraphAgentRegistry{
		client: dgo.NewDgraphClient(api.NewDgraphClient(conn)),
		conn:   conn,
	}

	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := registry.client.Alter(ctx, &api.Operation{Schema: agentSchema}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return registry, nil
}

// Register inserts an agent or replaces the specialization of an existing
// one. Re-registering keeps the original registration position.
func (r *DgraphAgentRegistry) Register(ctx context.Context, agent models.AgentDefinition) error {
	if agent.Name == "" {
		return fmt.Errorf("agent name is required")
	}

	insert, err := json.Marshal(map[string]interface{}{
		"uid":                  "_:agent",
		"dgraph.type":          "Agent",
		"agent.name":           agent.Name,
		"agent.specialization": agent.Specialization,
		"agent.registered":     time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal agent: %w", err)
	}

	update, err := json.Marshal(map[string]interface{}{
		"uid":                  "uid(v)",
		"agent.specialization": agent.Specialization,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal agent: %w", err)
	}

	req := &api.Request{
		Query: agentByName,
		Vars:  map[string]string{"$name": agent.Name},
		Mutations: []*api.Mutation{
			{Cond: "@if(eq(len(v), 0))", SetJson: insert},
			{Cond: "@if(gt(len(v), 0))", SetJson: update},
		},
		CommitNow: true,
	}

	txn := r.client.NewTxn()
	defer txn.Discard(ctx)

	if _, err := txn.Do(ctx, req); err != nil {
		return fmt.Errorf("failed to register agent %s: %w", agent.Name, err)
	}
	return nil
}

// Remove deletes an agent by name
func (r *DgraphAgentRegistry) Remove(ctx context.Context, name string) error {
	uid, err := r.agentUID(ctx, name)
	if err != nil {
		return err
	}

	del, err := json.Marshal(map[string]string{"uid": uid})
	if err != nil {
		return fmt.Errorf("failed to marshal delete: %w", err)
	}

	txn := r.client.NewTxn()
	defer txn.Discard(ctx)

	if _, err := txn.Mutate(ctx, &api.Mutation{CommitNow: true, DeleteJson: del}); err != nil {
		return fmt.Errorf("failed to remove agent %s: %w", name, err)
	}
	return nil
}

// List returns every agent ordered by registration time
func (r *DgraphAgentRegistry) List(ctx context.Context) ([]models.AgentDefinition, error) {
	const q = `{
		agents(func: type(Agent), orderasc: agent.registered) {
			agent.name
			agent.specialization
		}
	}`

	txn := r.client.NewReadOnlyTxn()
	defer txn.Discard(ctx)

	resp, err := txn.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	var result struct {
		Agents []struct {
			Name           string `json:"agent.name"`
			Specialization string `json:"agent.specialization"`
		} `json:"agents"`
	}
	if err := json.Unmarshal(resp.Json, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	agents := make([]models.AgentDefinition, len(result.Agents))
	for i, a := range result.Agents {
		agents[i] = models.AgentDefinition{Name: a.Name, Specialization: a.Specialization}
	}
	return agents, nil
}

// agentUID retrieves the Dgraph UID for an agent by name
func (r *DgraphAgentRegistry) agentUID(ctx context.Context, name string) (string, error) {
	const q = `query agent($name: string) {
		agent(func: eq(agent.name, $name)) {
			uid
		}
	}`

	txn := r.client.NewReadOnlyTxn()
	defer txn.Discard(ctx)

	resp, err := txn.QueryWithVars(ctx, q, map[string]string{"$name": name})
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}

	var result struct {
		Agent []struct {
			UID string `json:"uid"`
		} `json:"agent"`
	}
	if err := json.Unmarshal(resp.Json, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Agent) == 0 {
		return "", fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	return result.Agent[0].UID, nil
}

// Close closes the Dgraph connection
func (r *DgraphAgentRegistry) Close() error {
	return r.conn.Close()
}
