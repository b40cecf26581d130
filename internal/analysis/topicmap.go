package analysis

import (
	"slices"
	"strings"

	"github.com/quantumflow/loremaster/internal/models"
)

// TopicMap is the bidirectional index between agents and the keywords mined
// from their specializations. Both directions keep insertion order so that
// every traversal is deterministic.
type TopicMap struct {
	agentToKeywords map[string][]string
	keywordToAgents map[string][]string
	agents          []string
	keywords        []string
}

// BuildTopicMap indexes the keywords of every agent definition.
// An agent listed twice keeps the union of its keywords.
func BuildTopicMap(agents []models.AgentDefinition) *TopicMap {
	tm := &TopicMap{
		agentToKeywords: make(map[string][]string, len(agents)),
		keywordToAgents: make(map[string][]string),
	}

	for _, agent := range agents {
		existing, known := tm.agentToKeywords[agent.Name]
		if !known {
			tm.agents = append(tm.agents, agent.Name)
			existing = []string{}
		}

		for _, keyword := range ExtractKeywords(agent.Specialization) {
			if !slices.Contains(existing, keyword) {
				existing = append(existing, keyword)
			}

			owners, indexed := tm.keywordToAgents[keyword]
			if !indexed {
				tm.keywords = append(tm.keywords, keyword)
			}
			if !slices.Contains(owners, agent.Name) {
				tm.keywordToAgents[keyword] = append(owners, agent.Name)
			}
		}
		tm.agentToKeywords[agent.Name] = existing
	}

	return tm
}

// Agents returns agent names in registration order
func (tm *TopicMap) Agents() []string {
	return slices.Clone(tm.agents)
}

// Keywords returns every indexed keyword in first-seen order
func (tm *TopicMap) Keywords() []string {
	return slices.Clone(tm.keywords)
}

// KeywordsFor returns the keywords extracted for an agent
func (tm *TopicMap) KeywordsFor(agent string) []string {
	return slices.Clone(tm.agentToKeywords[agent])
}

// AgentsFor returns the agents whose specialization contains keyword
func (tm *TopicMap) AgentsFor(keyword string) []string {
	return slices.Clone(tm.keywordToAgents[keyword])
}

// TopicLabel is the topic name used for messages won by agent
func (tm *TopicMap) TopicLabel(agent string) string {
	return strings.Join(tm.agentToKeywords[agent], "_")
}

// Empty reports whether the map indexes no keywords at all
func (tm *TopicMap) Empty() bool {
	return tm == nil || len(tm.keywords) == 0
}
