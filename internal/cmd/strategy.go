package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crewline/crewline/internal/router"
	"github.com/crewline/crewline/internal/task"
	"github.com/crewline/crewline/internal/worker"
)

var strategyFlags struct {
	brief   string
	backlog string
	overlay string
}

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Preview the recommended execution strategy for a brief and backlog",
	RunE: func(cmd *cobra.Command, args []string) error {
		brief, err := loadBrief(strategyFlags.brief)
		if err != nil {
			return err
		}
		backlog, err := task.LoadBacklog(strategyFlags.backlog)
		if err != nil {
			return err
		}
		catalog, err := buildCatalog(strategyFlags.overlay)
		if err != nil {
			return err
		}

		prov, err := worker.NewProvisioner(catalog, simulateFactory)
		if err != nil {
			return err
		}
		roster, err := prov.Provision(brief)
		if err != nil {
			return err
		}

		r := router.New()
		strategy := r.RecommendStrategy(backlog, roster)

		fmt.Printf("recommended strategy: %s\n", headerStyle.Render(string(strategy)))
		fmt.Printf("backlog: %d items (dependencies: %v)   roster: %d workers (%d specialists)\n",
			len(backlog), task.HasDependencies(backlog), roster.Len(), roster.SpecialistCount())

		if strategy == router.StrategyHybrid {
			assigned, err := r.Assign(backlog, roster)
			if err != nil {
				return err
			}
			phases := r.GroupPhases(assigned)
			for _, phase := range router.PhaseOrder() {
				if len(phases[phase]) == 0 {
					continue
				}
				fmt.Printf("  %s: %d tasks\n", phase, len(phases[phase]))
			}
		}
		return nil
	},
}

func init() {
	strategyCmd.Flags().StringVar(&strategyFlags.brief, "brief", "", "work brief YAML file (required)")
	strategyCmd.Flags().StringVar(&strategyFlags.backlog, "backlog", "", "backlog YAML file (required)")
	strategyCmd.Flags().StringVar(&strategyFlags.overlay, "roles-overlay", "", "role catalog overlay YAML file")
	_ = strategyCmd.MarkFlagRequired("brief")
	_ = strategyCmd.MarkFlagRequired("backlog")
	rootCmd.AddCommand(strategyCmd)
}
