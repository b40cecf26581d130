package models

import "time"

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// AgentDefinition describes an agent available for routing
type AgentDefinition struct {
	Name           string `json:"name" mapstructure:"name"`
	Specialization string `json:"specialization" mapstructure:"specialization"`
}

// Message represents a single message in a campaign thread
type Message struct {
	ID              string           `json:"id"`
	Content         string           `json:"content"`
	Role            Role             `json:"role"`
	CreatedAt       time.Time        `json:"createdAt"`
	RoutingMetadata *RoutingMetadata `json:"routingMetadata,omitempty"`
}

// RoutingMetadata records the routing decision that produced a message
type RoutingMetadata struct {
	Decision      *RoutingDecision `json:"decision"`
	ExecutionTime float64          `json:"executionTime"` // milliseconds
	Success       bool             `json:"success"`
	FallbackUsed  bool             `json:"fallbackUsed"`
}

// RoutingDecision is the outcome of a prior routing step
type RoutingDecision struct {
	TargetAgent    string            `json:"targetAgent"`
	Confidence     float64           `json:"confidence"`
	Reasoning      string            `json:"reasoning"`
	FallbackAgent  string            `json:"fallbackAgent,omitempty"`
	IntentKeywords []string          `json:"intentKeywords"`
	ContextFactors map[string]string `json:"contextFactors,omitempty"`
}

// TargetAgent returns the agent a message was routed to, or "" when the
// message carries no routing decision.
func (m Message) TargetAgent() string {
	if m.RoutingMetadata == nil || m.RoutingMetadata.Decision == nil {
		return ""
	}
	return m.RoutingMetadata.Decision.TargetAgent
}

// Failed reports whether the message records an unsuccessful routing.
// Messages without routing metadata never count as failures.
func (m Message) Failed() bool {
	return m.RoutingMetadata != nil && !m.RoutingMetadata.Success
}

// RunKey identifies one analysis run for persistence
type RunKey struct {
	UserID     string `json:"user_id"`
	CampaignID string `json:"campaign_id"`
	ThreadID   string `json:"thread_id"`
	RunID      string `json:"run_id"`
}
