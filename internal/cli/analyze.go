package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantumflow/loremaster/internal/agent"
	"github.com/quantumflow/loremaster/internal/analysis"
	"github.com/quantumflow/loremaster/internal/models"
)

var (
	analyzeInput  string
	analyzeWindow int
	analyzeFormat string
)

// windowFile is the input accepted by the analyze command
type windowFile struct {
	Agents   []models.AgentDefinition `json:"agents"`
	Messages []models.Message         `json:"messages"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a conversation window read from a file",
	Long: `Analyze a conversation window without touching any backend.

The input is a JSON document with "agents" and "messages" arrays. When
"agents" is empty the agents from the config file are used.

Examples:
  loremaster analyze --input window.json
  loremaster analyze --input - --window 5 --format json < window.json`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "window file (- for stdin)")
	analyzeCmd.Flags().IntVarP(&analyzeWindow, "window", "w", analysis.DefaultWindowSize, "number of trailing messages to analyze")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "output format: text or json")
	_ = analyzeCmd.MarkFlagRequired("input")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := checkFormat(analyzeFormat); err != nil {
		return err
	}

	window, err := readWindowFile(cmd.InOrStdin(), analyzeInput)
	if err != nil {
		return err
	}

	agents := window.Agents
	if len(agents) == 0 {
		agents = cfg.Agents
	}

	a := analysis.Analyze(window.Messages, agents, analyzeWindow)
	suggestions := agent.Suggest(analysis.Window(window.Messages, analyzeWindow), agents)

	out := cmd.OutOrStdout()
	if analyzeFormat == "json" {
		return writeJSON(out, analysisOutput{Analysis: a, Suggestions: suggestions})
	}

	fmt.Fprint(out, analysis.FormatAsMarkdown(a))
	printSuggestions(out, suggestions)
	return nil
}

func readWindowFile(stdin io.Reader, path string) (*windowFile, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var window windowFile
	if err := json.NewDecoder(r).Decode(&window); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return &window, nil
}
