package analysis

import (
	"sort"
	"strings"

	"github.com/quantumflow/loremaster/internal/models"
)

// GeneralTopic labels messages that no agent specialization claims
const GeneralTopic = "general"

const maxDominantTopics = 3

// TopicShift marks a change of topic between two adjacent messages
type TopicShift struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	MessageIndex int     `json:"messageIndex"`
	Confidence   float64 `json:"confidence"`
}

// ExtractTopic classifies a message by keyword vote. Every keyword found in
// the content awards a point to each agent owning it, walking keywords in
// insertion order. Among agents tied on the highest score, the one that
// scored its first point earliest wins, not the one that reached the top
// score first. The topic is the winner's keyword list joined with "_".
// Messages without any match are GeneralTopic.
func ExtractTopic(msg models.Message, tm *TopicMap) string {
	if tm.Empty() {
		return GeneralTopic
	}

	content := strings.ToLower(msg.Content)
	scores := make(map[string]int)
	var order []string

	for _, keyword := range tm.keywords {
		if !strings.Contains(content, keyword) {
			continue
		}
		for _, agent := range tm.keywordToAgents[keyword] {
			if _, ok := scores[agent]; !ok {
				order = append(order, agent)
			}
			scores[agent]++
		}
	}

	best, bestScore := "", 0
	for _, agent := range order {
		if scores[agent] > bestScore {
			best, bestScore = agent, scores[agent]
		}
	}
	if bestScore == 0 {
		return GeneralTopic
	}
	return tm.TopicLabel(best)
}

// messageTopics classifies every message of the window once
func messageTopics(messages []models.Message, tm *TopicMap) []string {
	topics := make([]string, len(messages))
	for i, msg := range messages {
		topics[i] = ExtractTopic(msg, tm)
	}
	return topics
}

// AnalyzeTopicShifts reports every adjacent pair of messages whose
// non-general topics differ.
func AnalyzeTopicShifts(messages []models.Message, tm *TopicMap) []TopicShift {
	return topicShifts(messages, messageTopics(messages, tm))
}

func topicShifts(messages []models.Message, topics []string) []TopicShift {
	shifts := []TopicShift{}
	for i := 1; i < len(topics); i++ {
		prev, curr := topics[i-1], topics[i]
		if prev == GeneralTopic || curr == GeneralTopic || prev == curr {
			continue
		}

		similarity := jaccard(wordSet(messages[i-1].Content), wordSet(messages[i].Content))
		shifts = append(shifts, TopicShift{
			From:         prev,
			To:           curr,
			MessageIndex: i,
			Confidence:   max(0.1, 1-similarity),
		})
	}
	return shifts
}

// DominantTopics returns up to three most frequent non-general topics.
// Equal counts keep first-appearance order.
func DominantTopics(messages []models.Message, tm *TopicMap) []string {
	return dominantTopics(messageTopics(messages, tm))
}

func dominantTopics(topics []string) []string {
	counts := make(map[string]int)
	var order []string
	for _, topic := range topics {
		if topic == GeneralTopic {
			continue
		}
		if _, ok := counts[topic]; !ok {
			order = append(order, topic)
		}
		counts[topic]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxDominantTopics {
		order = order[:maxDominantTopics]
	}
	if order == nil {
		return []string{}
	}
	return order
}

// TopicStability scores how focused the window is, from 0.1 (every message
// on its own topic) to 1.0 (a single topic). It is a count heuristic over
// distinct topics, not a statistical variance.
func TopicStability(messages []models.Message, tm *TopicMap) float64 {
	return topicStability(messageTopics(messages, tm))
}

func topicStability(topics []string) float64 {
	windowSize := len(topics)
	unique := uniqueTopicCount(topics)

	switch {
	case windowSize == 0 || unique <= 1:
		return 1.0
	case float64(unique) >= 0.8*float64(windowSize):
		return 0.1
	default:
		return max(0.1, 1-float64(unique)/float64(windowSize))
	}
}

func uniqueTopicCount(topics []string) int {
	seen := make(map[string]struct{})
	for _, topic := range topics {
		if topic != GeneralTopic {
			seen[topic] = struct{}{}
		}
	}
	return len(seen)
}

// wordSet returns the distinct lowercase whitespace-separated words of s
func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
