// Package analysis inspects a window of multi-agent conversation history and
// produces advisory routing signals. Every function is a pure transformation
// of its arguments: no I/O, no shared state, no errors.
package analysis

import (
	"slices"

	"github.com/quantumflow/loremaster/internal/models"
)

// DefaultWindowSize is the number of trailing messages analyzed when the
// caller does not choose a window.
const DefaultWindowSize = 10

// EmptyWindowRecommendation is the only advice given for an empty window
const EmptyWindowRecommendation = "No conversation history available for analysis"

// ConversationAnalysis is the full result of one analysis call
type ConversationAnalysis struct {
	MessageCount      int                   `json:"messageCount"`
	TopicShifts       []TopicShift          `json:"topicShifts"`
	DominantTopics    []string              `json:"dominantTopics"`
	TopicStability    float64               `json:"topicStability"`
	AgentPerformance  []AgentPerformance    `json:"agentPerformance"`
	Patterns          []ConversationPattern `json:"patterns"`
	ContinuityFactors []ContinuityFactor    `json:"continuityFactors"`
	Recommendations   []string              `json:"recommendations"`
}

// Performance returns the record for agent, if it was used in the window
func (a ConversationAnalysis) Performance(agent string) (AgentPerformance, bool) {
	for _, perf := range a.AgentPerformance {
		if perf.Agent == agent {
			return perf, true
		}
	}
	return AgentPerformance{}, false
}

// Pattern returns the detected pattern of the given type, if any
func (a ConversationAnalysis) Pattern(kind PatternType) (ConversationPattern, bool) {
	for _, p := range a.Patterns {
		if p.Type() == kind {
			return p, true
		}
	}
	return nil, false
}

// Factor returns the continuity factor of the given type, if any
func (a ConversationAnalysis) Factor(kind FactorType) (ContinuityFactor, bool) {
	for _, f := range a.ContinuityFactors {
		if f.Type() == kind {
			return f, true
		}
	}
	return nil, false
}

// Analyze runs the full pipeline over the last windowSize messages.
// A windowSize of zero or less selects DefaultWindowSize.
func Analyze(messages []models.Message, agents []models.AgentDefinition, windowSize int) ConversationAnalysis {
	window := Window(messages, windowSize)
	if len(window) == 0 {
		return emptyAnalysis()
	}

	defs := slices.Clone(agents)
	tm := BuildTopicMap(defs)
	topics := messageTopics(window, tm)

	stability := topicStability(topics)
	dominant := dominantTopics(topics)
	performance := AnalyzeAgentPerformance(window, tm.Agents())
	patterns := detectPatterns(window, tm, topics)
	factors := AssessContinuity(window, tm)

	return ConversationAnalysis{
		MessageCount:      len(window),
		TopicShifts:       topicShifts(window, topics),
		DominantTopics:    dominant,
		TopicStability:    stability,
		AgentPerformance:  performance,
		Patterns:          patterns,
		ContinuityFactors: factors,
		Recommendations:   SynthesizeRecommendations(stability, dominant, performance, patterns, factors),
	}
}

// Window returns the trailing windowSize messages
func Window(messages []models.Message, windowSize int) []models.Message {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if len(messages) > windowSize {
		return messages[len(messages)-windowSize:]
	}
	return messages
}

func emptyAnalysis() ConversationAnalysis {
	return ConversationAnalysis{
		MessageCount:      0,
		TopicShifts:       []TopicShift{},
		DominantTopics:    []string{},
		TopicStability:    1.0,
		AgentPerformance:  []AgentPerformance{},
		Patterns:          []ConversationPattern{},
		ContinuityFactors: []ContinuityFactor{},
		Recommendations:   []string{EmptyWindowRecommendation},
	}
}
