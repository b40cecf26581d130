package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quantumflow/loremaster/internal/analysis"
	"github.com/quantumflow/loremaster/internal/models"
)

var agentSpecialization string

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List registered agents and their routing keywords",
	Long: `List the agents available for routing along with the keywords and
topic label derived from each specialization.

Agents come from Dgraph when dgraph.alpha_addr is set and from the
config file otherwise.

Examples:
  loremaster agents
  loremaster agents register npc-agent --specialization "npc dialogue and voices"
  loremaster agents remove npc-agent`,
	RunE: runAgents,
}

var agentsRegisterCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register or update an agent",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentsRegister,
}

var agentsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an agent",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentsRemove,
}

func init() {
	agentsRegisterCmd.Flags().StringVarP(&agentSpecialization, "specialization", "s", "", "agent specialization")
	_ = agentsRegisterCmd.MarkFlagRequired("specialization")

	agentsCmd.AddCommand(agentsRegisterCmd)
	agentsCmd.AddCommand(agentsRemoveCmd)
}

func runAgents(cmd *cobra.Command, args []string) error {
	registry, err := openRegistry()
	if err != nil {
		return err
	}

	agents, err := registry.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list agents: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(agents) == 0 {
		fmt.Fprintln(out, "No agents registered.")
		return nil
	}

	tm := analysis.BuildTopicMap(agents)
	for _, a := range agents {
		fmt.Fprintf(out, "%s\n", a.Name)
		fmt.Fprintf(out, "  specialization: %s\n", a.Specialization)
		fmt.Fprintf(out, "  topic:          %s\n", tm.TopicLabel(a.Name))
		fmt.Fprintf(out, "  keywords:       %s\n", strings.Join(tm.KeywordsFor(a.Name), ", "))
	}
	return nil
}

func runAgentsRegister(cmd *cobra.Command, args []string) error {
	if err := requireDgraph(); err != nil {
		return err
	}
	registry, err := openRegistry()
	if err != nil {
		return err
	}

	def := models.AgentDefinition{Name: args[0], Specialization: agentSpecialization}
	if err := registry.Register(cmd.Context(), def); err != nil {
		return fmt.Errorf("register agent: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (keywords: %s)\n",
		def.Name, strings.Join(analysis.ExtractKeywords(def.Specialization), ", "))
	return nil
}

func runAgentsRemove(cmd *cobra.Command, args []string) error {
	if err := requireDgraph(); err != nil {
		return err
	}
	registry, err := openRegistry()
	if err != nil {
		return err
	}

	if err := registry.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("remove agent: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}

// requireDgraph rejects writes to the config-file registry, which would be
// lost when the command exits.
func requireDgraph() error {
	if cfg.Dgraph.AlphaAddr == "" {
		return fmt.Errorf("agents are read from the config file; set dgraph.alpha_addr to manage them")
	}
	return nil
}
