package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantumflow/loremaster/internal/agent"
	"github.com/quantumflow/loremaster/internal/analysis"
)

var (
	routeUser     string
	routeCampaign string
	routeThread   string
	routeWindow   int
	routeFormat   string
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Analyze a stored thread and suggest agents",
	Long: `Load the recent window of a stored thread, analyze it against the
registered agents and record the result in the metrics backend.

Examples:
  loremaster route --thread t-42
  loremaster route --user u-1 --campaign c-7 --thread t-42 --format json`,
	RunE: runRoute,
}

func init() {
	routeCmd.Flags().StringVarP(&routeUser, "user", "u", "", "user id")
	routeCmd.Flags().StringVar(&routeCampaign, "campaign", "", "campaign id")
	routeCmd.Flags().StringVarP(&routeThread, "thread", "t", "", "thread id")
	routeCmd.Flags().IntVarP(&routeWindow, "window", "w", 0, "number of trailing messages to analyze (default from config)")
	routeCmd.Flags().StringVarP(&routeFormat, "format", "f", "text", "output format: text or json")
	_ = routeCmd.MarkFlagRequired("thread")
}

func runRoute(cmd *cobra.Command, args []string) error {
	if err := checkFormat(routeFormat); err != nil {
		return err
	}

	router, err := newRouter()
	if err != nil {
		return err
	}

	res, err := router.Analyze(cmd.Context(), &agent.Request{
		UserID:     routeUser,
		CampaignID: routeCampaign,
		ThreadID:   routeThread,
		WindowSize: routeWindow,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if routeFormat == "json" {
		return writeJSON(out, analysisOutput{
			Key:         &res.Key,
			Cached:      res.Cached,
			Analysis:    res.Analysis,
			Suggestions: res.Suggestions,
		})
	}

	fmt.Fprintf(out, "Run %s on thread %s (%s", res.Key.RunID, res.Key.ThreadID, res.Duration.Round(time.Microsecond))
	if res.Cached {
		fmt.Fprint(out, ", cached")
	}
	fmt.Fprintln(out, ")")
	fmt.Fprintln(out)
	fmt.Fprint(out, analysis.FormatAsMarkdown(res.Analysis))
	printSuggestions(out, res.Suggestions)
	return nil
}

func newRouter() (*agent.Router, error) {
	registry, err := openRegistry()
	if err != nil {
		return nil, err
	}
	store, err := openConversationStore()
	if err != nil {
		return nil, err
	}
	recorder, err := openRecorder()
	if err != nil {
		return nil, err
	}
	cache, err := openCache()
	if err != nil {
		return nil, err
	}

	routerConfig := agent.DefaultRouterConfig()
	routerConfig.WindowSize = cfg.Analysis.WindowSize
	return agent.NewRouter(routerConfig, registry, store, recorder, cache, logger), nil
}
