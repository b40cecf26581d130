package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantumflow/loremaster/internal/metrics"
)

var (
	historyUser     string
	historyCampaign string
	historyThread   string
	historySince    time.Duration
	historyLimit    int
	historyFormat   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded analysis runs",
	Long: `List analysis runs recorded in the metrics backend, newest first.

Examples:
  loremaster history --thread t-42
  loremaster history --campaign c-7 --since 24h --limit 50
  loremaster history --format json`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyUser, "user", "u", "", "filter by user id")
	historyCmd.Flags().StringVar(&historyCampaign, "campaign", "", "filter by campaign id")
	historyCmd.Flags().StringVarP(&historyThread, "thread", "t", "", "filter by thread id")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only runs newer than this (e.g. 24h)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "output format: text or json")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := checkFormat(historyFormat); err != nil {
		return err
	}

	store, err := openMetricsStore()
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("metrics backend is disabled (metrics.backend: none)")
	}

	filter := metrics.Filter{
		UserID:     historyUser,
		CampaignID: historyCampaign,
		ThreadID:   historyThread,
		Limit:      historyLimit,
	}
	if historySince > 0 {
		filter.Since = time.Now().Add(-historySince)
	}

	records, err := store.Query(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}

	out := cmd.OutOrStdout()
	if historyFormat == "json" {
		return writeJSON(out, records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No analysis runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tTHREAD\tRUN\tMSGS\tSTABILITY\tPATTERNS")
	for _, r := range records {
		patterns := strings.Join(r.Patterns, ",")
		if patterns == "" {
			patterns = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Key.ThreadID, r.Key.RunID, r.MessageCount, r.TopicStability, patterns)
	}
	return w.Flush()
}
