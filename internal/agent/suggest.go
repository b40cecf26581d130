package agent

import (
	"sort"
	"strings"

	"github.com/quantumflow/loremaster/internal/analysis"
	"github.com/quantumflow/loremaster/internal/models"
)

// Suggest scores every agent against the latest user message by the share of
// its specialization keywords the message mentions. Agents without a match
// are omitted; equal scores keep registration order. The ranking is advisory.
func Suggest(messages []models.Message, agents []models.AgentDefinition) []Suggestion {
	query := latestUserMessage(messages)
	if query == "" {
		return []Suggestion{}
	}
	query = strings.ToLower(query)

	tm := analysis.BuildTopicMap(agents)
	suggestions := []Suggestion{}
	for _, name := range tm.Agents() {
		keywords := tm.KeywordsFor(name)
		if len(keywords) == 0 {
			continue
		}

		var matched []string
		for _, kw := range keywords {
			if strings.Contains(query, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			continue
		}

		suggestions = append(suggestions, Suggestion{
			Agent:   name,
			Score:   float64(len(matched)) / float64(len(keywords)),
			Matched: matched,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	return suggestions
}

func latestUserMessage(messages []models.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
