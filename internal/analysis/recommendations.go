package analysis

import "fmt"

const (
	// FallbackRecommendation is emitted when no other advice applies
	FallbackRecommendation = "Continue with current routing approach"

	volatileStability = 0.3
	focusedStability  = 0.8
	lowSuccessRate    = 0.5
)

// SynthesizeRecommendations merges every sub-analysis into ordered,
// human-readable routing advice: stability first, then per-agent warnings,
// then patterns and continuity factors in detection order.
func SynthesizeRecommendations(
	stability float64,
	dominant []string,
	performance []AgentPerformance,
	patterns []ConversationPattern,
	factors []ContinuityFactor,
) []string {
	var recs []string

	switch {
	case stability < volatileStability:
		recs = append(recs, "Conversation topics are highly volatile - consider routing to a generalist agent")
	case stability > focusedStability && len(dominant) > 0:
		recs = append(recs, fmt.Sprintf("Conversation is focused on %s - maintain the current specialist agent", dominant[0]))
	}

	for _, perf := range performance {
		if perf.OveruseIndicator {
			recs = append(recs, fmt.Sprintf("Agent %s is handling most of the conversation - consider whether another agent fits better", perf.Agent))
		}
		if perf.SuccessRate < lowSuccessRate {
			recs = append(recs, fmt.Sprintf("Agent %s has a low success rate (%.0f%%) - consider an alternative agent", perf.Agent, perf.SuccessRate*100))
		}
		if perf.UserSatisfaction == SatisfactionNegative {
			recs = append(recs, fmt.Sprintf("User seems dissatisfied with agent %s - consider switching agents", perf.Agent))
		}
	}

	for _, p := range patterns {
		d := p.Details()
		recs = append(recs, fmt.Sprintf("%s: %s - %s", p.Type(), d.Description, d.Recommendation))
	}

	for _, f := range factors {
		d := f.Details()
		recs = append(recs, fmt.Sprintf("%s: %s - %s", f.Type(), d.Description, d.Recommendation))
	}

	if len(recs) == 0 {
		return []string{FallbackRecommendation}
	}
	return recs
}
