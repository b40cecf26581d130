package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/quantumflow/loremaster/internal/models"
)

const (
	workflowConfidence   = 0.8
	knowledgeConfidence  = 0.7
	preferenceConfidence = 0.9

	minWorkflowMentions   = 2
	completeMentions      = 5.0
	maintainCompletion    = 0.7
	minAssistantMessages  = 3
	highKnowledgeLength   = 500
	mediumKnowledgeLength = 200
)

var preferenceCues = []string{"prefer", "like", "continue"}

// AssessContinuity collects the signals in favor of keeping the current
// agent, in order: active workflow, knowledge buildup, user preference.
func AssessContinuity(messages []models.Message, tm *TopicMap) []ContinuityFactor {
	factors := []ContinuityFactor{}

	if f, ok := assessActiveWorkflow(messages, tm); ok {
		factors = append(factors, f)
	}
	if f, ok := assessKnowledgeBuildup(messages); ok {
		factors = append(factors, f)
	}
	if f, ok := assessUserPreference(messages); ok {
		factors = append(factors, f)
	}

	return factors
}

// assessActiveWorkflow treats five mentions of one keyword across the whole
// window as a finished workflow.
func assessActiveWorkflow(messages []models.Message, tm *TopicMap) (ActiveWorkflow, bool) {
	keyword, mentions := topKeyword(messages, tm)
	if mentions < minWorkflowMentions {
		return ActiveWorkflow{}, false
	}

	completion := min(1, float64(mentions)/completeMentions)
	recommendation := RecommendPreferCurrent
	if completion > maintainCompletion {
		recommendation = RecommendMaintainCurrent
	}

	return ActiveWorkflow{
		Signal: Signal{
			Description:    fmt.Sprintf("Workflow around %q is %.0f%% complete", keyword, completion*100),
			Confidence:     workflowConfidence,
			Recommendation: recommendation,
		},
		CurrentStep: keyword,
		Mentions:    mentions,
		Completion:  completion,
	}, true
}

func assessKnowledgeBuildup(messages []models.Message) (KnowledgeBuildup, bool) {
	count, total := 0, 0
	for _, msg := range messages {
		if msg.Role == models.RoleAssistant {
			count++
			total += utf8.RuneCountInString(msg.Content)
		}
	}
	if count < minAssistantMessages {
		return KnowledgeBuildup{}, false
	}

	avg := float64(total) / float64(count)
	level := KnowledgeLow
	switch {
	case avg > highKnowledgeLength:
		level = KnowledgeHigh
	case avg > mediumKnowledgeLength:
		level = KnowledgeMedium
	}

	recommendation := RecommendPreferCurrent
	if level == KnowledgeHigh {
		recommendation = RecommendMaintainCurrent
	}

	return KnowledgeBuildup{
		Signal: Signal{
			Description:    fmt.Sprintf("Assistant has built up %s context over %d responses", level, count),
			Confidence:     knowledgeConfidence,
			Recommendation: recommendation,
		},
		Level:         level,
		AverageLength: avg,
	}, true
}

func assessUserPreference(messages []models.Message) (UserPreference, bool) {
	for _, msg := range messages {
		if msg.Role != models.RoleUser {
			continue
		}
		content := strings.ToLower(msg.Content)
		for _, cue := range preferenceCues {
			if strings.Contains(content, cue) {
				return UserPreference{
					Signal: Signal{
						Description:    "User expressed a preference about how to continue",
						Confidence:     preferenceConfidence,
						Recommendation: RecommendPreferCurrent,
					},
					Cue: cue,
				}, true
			}
		}
	}
	return UserPreference{}, false
}
