package analysis

import "encoding/json"

// Recommendation is the routing advice attached to a pattern or factor
type Recommendation string

const (
	RecommendMaintainCurrent Recommendation = "maintain_current_agent"
	RecommendPreferCurrent   Recommendation = "prefer_current_agent"
	RecommendSpecialist      Recommendation = "consider_specialist"
	RecommendAlternative     Recommendation = "try_alternative_agent"
	RecommendGeneralist      Recommendation = "use_generalist_agent"
)

// Signal carries the fields shared by every pattern and continuity factor
type Signal struct {
	Description    string         `json:"description"`
	Confidence     float64        `json:"confidence"`
	Recommendation Recommendation `json:"recommendation"`
}

// Details returns the shared signal fields
func (s Signal) Details() Signal { return s }

// PatternType tags a ConversationPattern variant
type PatternType string

const (
	PatternEscalatingComplexity PatternType = "escalating_complexity"
	PatternRepeatedFailures     PatternType = "repeated_failures"
	PatternSessionFlow          PatternType = "session_flow"
	PatternTopicDrift           PatternType = "topic_drift"
)

// ConversationPattern is a behavioral pattern found in the window.
// The set of implementations is closed to this package.
type ConversationPattern interface {
	Type() PatternType
	Details() Signal
	conversationPattern()
}

// EscalatingComplexity fires when the last three user requests grow strictly
// more complex.
type EscalatingComplexity struct {
	Signal
	Scores []int `json:"scores"`
}

// RepeatedFailures fires when several routed messages failed
type RepeatedFailures struct {
	Signal
	FailureCount int `json:"failureCount"`
}

// SessionFlow fires when recent messages keep returning to one keyword
type SessionFlow struct {
	Signal
	CurrentStep string `json:"currentStep"`
	Mentions    int    `json:"mentions"`
}

// TopicDrift fires when the window touches too many distinct topics
type TopicDrift struct {
	Signal
	UniqueTopics int `json:"uniqueTopics"`
}

func (EscalatingComplexity) Type() PatternType { return PatternEscalatingComplexity }
func (RepeatedFailures) Type() PatternType     { return PatternRepeatedFailures }
func (SessionFlow) Type() PatternType          { return PatternSessionFlow }
func (TopicDrift) Type() PatternType           { return PatternTopicDrift }

func (EscalatingComplexity) conversationPattern() {}
func (RepeatedFailures) conversationPattern()     {}
func (SessionFlow) conversationPattern()          {}
func (TopicDrift) conversationPattern()           {}

func (p EscalatingComplexity) MarshalJSON() ([]byte, error) {
	type body EscalatingComplexity
	return json.Marshal(struct {
		Type PatternType `json:"type"`
		body
	}{p.Type(), body(p)})
}

func (p RepeatedFailures) MarshalJSON() ([]byte, error) {
	type body RepeatedFailures
	return json.Marshal(struct {
		Type PatternType `json:"type"`
		body
	}{p.Type(), body(p)})
}

func (p SessionFlow) MarshalJSON() ([]byte, error) {
	type body SessionFlow
	return json.Marshal(struct {
		Type PatternType `json:"type"`
		body
	}{p.Type(), body(p)})
}

func (p TopicDrift) MarshalJSON() ([]byte, error) {
	type body TopicDrift
	return json.Marshal(struct {
		Type PatternType `json:"type"`
		body
	}{p.Type(), body(p)})
}

// FactorType tags a ContinuityFactor variant
type FactorType string

const (
	FactorActiveWorkflow   FactorType = "active_workflow"
	FactorKnowledgeBuildup FactorType = "knowledge_buildup"
	FactorUserPreference   FactorType = "user_preference"
)

// ContinuityFactor suggests that the current agent should keep the
// conversation. The set of implementations is closed to this package.
type ContinuityFactor interface {
	Type() FactorType
	Details() Signal
	continuityFactor()
}

// KnowledgeLevel buckets how much context the assistant has produced
type KnowledgeLevel string

const (
	KnowledgeHigh   KnowledgeLevel = "high"
	KnowledgeMedium KnowledgeLevel = "medium"
	KnowledgeLow    KnowledgeLevel = "low"
)

// ActiveWorkflow reports a multi-step task that is still in progress
type ActiveWorkflow struct {
	Signal
	CurrentStep string  `json:"currentStep"`
	Mentions    int     `json:"mentions"`
	Completion  float64 `json:"completion"`
}

// KnowledgeBuildup reports context accumulated in assistant replies
type KnowledgeBuildup struct {
	Signal
	Level         KnowledgeLevel `json:"level"`
	AverageLength float64        `json:"averageLength"`
}

// UserPreference reports an explicit user cue to stay on course
type UserPreference struct {
	Signal
	Cue string `json:"cue"`
}

func (ActiveWorkflow) Type() FactorType   { return FactorActiveWorkflow }
func (KnowledgeBuildup) Type() FactorType { return FactorKnowledgeBuildup }
func (UserPreference) Type() FactorType   { return FactorUserPreference }

func (ActiveWorkflow) continuityFactor()   {}
func (KnowledgeBuildup) continuityFactor() {}
func (UserPreference) continuityFactor()   {}

func (f ActiveWorkflow) MarshalJSON() ([]byte, error) {
	type body ActiveWorkflow
	return json.Marshal(struct {
		Type FactorType `json:"type"`
		body
	}{f.Type(), body(f)})
}

func (f KnowledgeBuildup) MarshalJSON() ([]byte, error) {
	type body KnowledgeBuildup
	return json.Marshal(struct {
		Type FactorType `json:"type"`
		body
	}{f.Type(), body(f)})
}

func (f UserPreference) MarshalJSON() ([]byte, error) {
	type body UserPreference
	return json.Marshal(struct {
		Type FactorType `json:"type"`
		body
	}{f.Type(), body(f)})
}
