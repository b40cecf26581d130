package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/quantumflow/loremaster/internal/models"
)

// Satisfaction is the user's reaction to an agent's replies
type Satisfaction string

const (
	SatisfactionPositive Satisfaction = "positive"
	SatisfactionNegative Satisfaction = "negative"
	SatisfactionNeutral  Satisfaction = "neutral"
)

const (
	// neverUsed is the lastUsed value of an agent with no routed message.
	// Agents without matches are skipped, so it never reaches the output.
	neverUsed = 999

	defaultResponseQuality = 3.0
	overuseShare           = 0.7
	mismatchWordScale      = 50.0
)

var (
	positiveFeedback = []string{"thank", "great", "perfect", "exactly", "helpful"}
	negativeFeedback = []string{"wrong", "not what", "try again", "different", "that's not"}
)

// AgentPerformance summarizes how an agent fared within the window
type AgentPerformance struct {
	Agent              string       `json:"agent"`
	Messages           int          `json:"messages"`
	LastUsed           int          `json:"lastUsed"`
	SuccessRate        float64      `json:"successRate"`
	AvgResponseQuality float64      `json:"avgResponseQuality"`
	UserSatisfaction   Satisfaction `json:"userSatisfaction"`
	SatisfactionScore  float64      `json:"satisfactionScore"`
	OveruseIndicator   bool         `json:"overuseIndicator"`
	ContextMismatch    float64      `json:"contextMismatch"`
}

// AnalyzeAgentPerformance computes a performance record for each candidate
// agent routed to at least once in the window. Output order follows agents.
func AnalyzeAgentPerformance(messages []models.Message, agents []string) []AgentPerformance {
	results := []AgentPerformance{}
	seen := make(map[string]struct{}, len(agents))

	for _, agent := range agents {
		if _, dup := seen[agent]; dup {
			continue
		}
		seen[agent] = struct{}{}

		var matches []int
		for i, msg := range messages {
			if target := msg.TargetAgent(); target != "" && target == agent {
				matches = append(matches, i)
			}
		}
		if len(matches) == 0 {
			continue
		}

		results = append(results, agentPerformance(agent, messages, matches))
	}

	return results
}

func agentPerformance(agent string, messages []models.Message, matches []int) AgentPerformance {
	windowSize := len(messages)

	lastUsed := neverUsed
	if len(matches) > 0 {
		lastUsed = windowSize - 1 - matches[len(matches)-1]
	}

	successes := 0
	qualityTotal := 0.0
	uniqueWords := 0
	for _, idx := range matches {
		msg := messages[idx]
		if msg.RoutingMetadata != nil && msg.RoutingMetadata.Success {
			successes++
		}
		qualityTotal += responseQuality(msg.Content)
		uniqueWords += len(wordSet(msg.Content))
	}

	quality := qualityTotal / float64(len(matches))
	if quality == 0 {
		quality = defaultResponseQuality
	}

	satisfaction, score := userSatisfaction(messages, matches)

	return AgentPerformance{
		Agent:              agent,
		Messages:           len(matches),
		LastUsed:           lastUsed,
		SuccessRate:        float64(successes) / float64(len(matches)),
		AvgResponseQuality: quality,
		UserSatisfaction:   satisfaction,
		SatisfactionScore:  score,
		OveruseIndicator:   float64(len(matches)) > overuseShare*float64(windowSize),
		ContextMismatch:    min(1, float64(uniqueWords)/float64(len(matches))/mismatchWordScale),
	}
}

// responseQuality maps message length onto a 1..5 scale
func responseQuality(content string) float64 {
	return clamp(float64(utf8.RuneCountInString(content))/100, 1, 5)
}

// userSatisfaction votes over the user messages that directly follow each
// agent reply. The score is the positive share of all votes, 0.5 without votes.
func userSatisfaction(messages []models.Message, matches []int) (Satisfaction, float64) {
	positive, negative := 0, 0
	for _, idx := range matches {
		next := idx + 1
		if next >= len(messages) || messages[next].Role != models.RoleUser {
			continue
		}

		reply := strings.ToLower(messages[next].Content)
		switch {
		case containsAny(reply, positiveFeedback):
			positive++
		case containsAny(reply, negativeFeedback):
			negative++
		}
	}

	score := 0.5
	if votes := positive + negative; votes > 0 {
		score = float64(positive) / float64(votes)
	}

	switch {
	case positive > negative:
		return SatisfactionPositive, score
	case negative > positive:
		return SatisfactionNegative, score
	default:
		return SatisfactionNeutral, score
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
