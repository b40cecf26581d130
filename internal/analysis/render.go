package analysis

import (
	"fmt"
	"strings"
)

// FormatAsMarkdown renders an analysis for terminal output
func FormatAsMarkdown(a ConversationAnalysis) string {
	var md strings.Builder

	md.WriteString("# Conversation Analysis\n\n")
	md.WriteString(fmt.Sprintf("**Messages:** %d  \n", a.MessageCount))
	md.WriteString(fmt.Sprintf("**Topic stability:** %.2f  \n", a.TopicStability))
	if len(a.DominantTopics) > 0 {
		md.WriteString(fmt.Sprintf("**Dominant topics:** %s  \n", strings.Join(a.DominantTopics, ", ")))
	}
	md.WriteString("\n")

	if len(a.TopicShifts) > 0 {
		md.WriteString("## Topic Shifts\n\n")
		for _, s := range a.TopicShifts {
			md.WriteString(fmt.Sprintf("- #%d %s → %s (%.2f)\n", s.MessageIndex, s.From, s.To, s.Confidence))
		}
		md.WriteString("\n")
	}

	if len(a.AgentPerformance) > 0 {
		md.WriteString("## Agents\n\n")
		md.WriteString("| Agent | Msgs | Last used | Success | Quality | Satisfaction | Overuse | Mismatch |\n")
		md.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, p := range a.AgentPerformance {
			md.WriteString(fmt.Sprintf("| %s | %d | %d | %.0f%% | %.1f | %s | %t | %.2f |\n",
				p.Agent, p.Messages, p.LastUsed, p.SuccessRate*100, p.AvgResponseQuality,
				p.UserSatisfaction, p.OveruseIndicator, p.ContextMismatch))
		}
		md.WriteString("\n")
	}

	if len(a.Patterns) > 0 {
		md.WriteString("## Patterns\n\n")
		for _, p := range a.Patterns {
			d := p.Details()
			md.WriteString(fmt.Sprintf("- **%s** (%.2f): %s\n", p.Type(), d.Confidence, d.Description))
		}
		md.WriteString("\n")
	}

	if len(a.ContinuityFactors) > 0 {
		md.WriteString("## Continuity\n\n")
		for _, f := range a.ContinuityFactors {
			d := f.Details()
			md.WriteString(fmt.Sprintf("- **%s** (%.2f): %s\n", f.Type(), d.Confidence, d.Description))
		}
		md.WriteString("\n")
	}

	md.WriteString("## Recommendations\n\n")
	for _, r := range a.Recommendations {
		md.WriteString(fmt.Sprintf("- %s\n", r))
	}

	return md.String()
}
