package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/quantumflow/loremaster/internal/agent"
	"github.com/quantumflow/loremaster/internal/analysis"
	"github.com/quantumflow/loremaster/internal/models"
)

// analysisOutput is the JSON shape printed by analyze and route
type analysisOutput struct {
	Key         *models.RunKey                `json:"key,omitempty"`
	Cached      bool                          `json:"cached,omitempty"`
	Analysis    analysis.ConversationAnalysis `json:"analysis"`
	Suggestions []agent.Suggestion            `json:"suggestions"`
}

func checkFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSuggestions(w io.Writer, suggestions []agent.Suggestion) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "## Agent Suggestions")
	fmt.Fprintln(w)
	if len(suggestions) == 0 {
		fmt.Fprintln(w, "No agent matches the latest user message.")
		return
	}
	for _, s := range suggestions {
		fmt.Fprintf(w, "- %s (%.2f): %v\n", s.Agent, s.Score, s.Matched)
	}
}
