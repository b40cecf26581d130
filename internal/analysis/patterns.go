package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/quantumflow/loremaster/internal/models"
)

const (
	escalationConfidence  = 0.8
	failureConfidence     = 0.9
	sessionFlowConfidence = 0.85
	driftConfidence       = 0.7

	minFailures        = 2
	sessionFlowWindow  = 5
	minSessionMentions = 3
	driftShare         = 0.6
	technicalTermBonus = 50
)

var technicalTerms = []string{"implement", "configure", "optimize", "debug", "analyze"}

// DetectPatterns runs every pattern check over the window. Patterns are
// returned in check order: escalating complexity, repeated failures,
// session flow, topic drift.
func DetectPatterns(messages []models.Message, tm *TopicMap) []ConversationPattern {
	return detectPatterns(messages, tm, messageTopics(messages, tm))
}

func detectPatterns(messages []models.Message, tm *TopicMap, topics []string) []ConversationPattern {
	patterns := []ConversationPattern{}

	if p, ok := detectEscalatingComplexity(messages); ok {
		patterns = append(patterns, p)
	}
	if p, ok := detectRepeatedFailures(messages); ok {
		patterns = append(patterns, p)
	}
	if p, ok := detectSessionFlow(messages, tm); ok {
		patterns = append(patterns, p)
	}
	if p, ok := detectTopicDrift(topics); ok {
		patterns = append(patterns, p)
	}

	return patterns
}

func detectEscalatingComplexity(messages []models.Message) (EscalatingComplexity, bool) {
	var scores []int
	for _, msg := range messages {
		if msg.Role == models.RoleUser {
			scores = append(scores, complexityScore(msg.Content))
		}
	}
	if len(scores) < 3 {
		return EscalatingComplexity{}, false
	}

	last := scores[len(scores)-3:]
	if !(last[0] < last[1] && last[1] < last[2]) {
		return EscalatingComplexity{}, false
	}

	return EscalatingComplexity{
		Signal: Signal{
			Description:    "User requests are becoming increasingly complex",
			Confidence:     escalationConfidence,
			Recommendation: RecommendSpecialist,
		},
		Scores: append([]int(nil), last...),
	}, true
}

// complexityScore weighs message length plus a bonus per technical term used
func complexityScore(content string) int {
	lower := strings.ToLower(content)
	terms := 0
	for _, term := range technicalTerms {
		if strings.Contains(lower, term) {
			terms++
		}
	}
	return utf8.RuneCountInString(content) + technicalTermBonus*terms
}

func detectRepeatedFailures(messages []models.Message) (RepeatedFailures, bool) {
	failures := 0
	for _, msg := range messages {
		if msg.Failed() {
			failures++
		}
	}
	if failures < minFailures {
		return RepeatedFailures{}, false
	}

	return RepeatedFailures{
		Signal: Signal{
			Description:    fmt.Sprintf("%d routing attempts failed in this window", failures),
			Confidence:     failureConfidence,
			Recommendation: RecommendAlternative,
		},
		FailureCount: failures,
	}, true
}

func detectSessionFlow(messages []models.Message, tm *TopicMap) (SessionFlow, bool) {
	recent := messages
	if len(recent) > sessionFlowWindow {
		recent = recent[len(recent)-sessionFlowWindow:]
	}

	keyword, mentions := topKeyword(recent, tm)
	if mentions < minSessionMentions {
		return SessionFlow{}, false
	}

	return SessionFlow{
		Signal: Signal{
			Description:    fmt.Sprintf("Ongoing workflow around %q across recent messages", keyword),
			Confidence:     sessionFlowConfidence,
			Recommendation: RecommendMaintainCurrent,
		},
		CurrentStep: keyword,
		Mentions:    mentions,
	}, true
}

func detectTopicDrift(topics []string) (TopicDrift, bool) {
	unique := uniqueTopicCount(topics)
	if float64(unique) <= driftShare*float64(len(topics)) {
		return TopicDrift{}, false
	}

	return TopicDrift{
		Signal: Signal{
			Description:    fmt.Sprintf("Conversation spans %d topics in %d messages", unique, len(topics)),
			Confidence:     driftConfidence,
			Recommendation: RecommendGeneralist,
		},
		UniqueTopics: unique,
	}, true
}

// topKeyword counts, per topic-map keyword, the messages mentioning it and
// returns the most mentioned one. Ties keep keyword insertion order.
func topKeyword(messages []models.Message, tm *TopicMap) (string, int) {
	if tm.Empty() || len(messages) == 0 {
		return "", 0
	}

	contents := make([]string, len(messages))
	for i, msg := range messages {
		contents[i] = strings.ToLower(msg.Content)
	}

	best, bestCount := "", 0
	for _, keyword := range tm.keywords {
		count := 0
		for _, content := range contents {
			if strings.Contains(content, keyword) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = keyword, count
		}
	}
	return best, bestCount
}
