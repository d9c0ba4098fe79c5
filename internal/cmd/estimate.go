package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/crewline/crewline/internal/config"
	"github.com/crewline/crewline/internal/worker"
)

var estimateFlags struct {
	brief   string
	overlay string
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the per-role cost of a brief",
	RunE: func(cmd *cobra.Command, args []string) error {
		brief, err := loadBrief(estimateFlags.brief)
		if err != nil {
			return err
		}
		catalog, err := buildCatalog(estimateFlags.overlay)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		var opts []worker.ProvisionerOption
		if cfg.Provision.MaxRolesLimited() {
			opts = append(opts, worker.WithMaxDynamicRoles(cfg.Provision.MaxDynamicRoles))
		}
		if cfg.Provision.CeilingSet() {
			opts = append(opts, worker.WithCostCeiling(cfg.Provision.CostCeiling))
		}
		prov, err := worker.NewProvisioner(catalog, simulateFactory, opts...)
		if err != nil {
			return err
		}

		est, err := prov.EstimateCost(brief)
		if err != nil {
			return err
		}
		within, err := prov.WithinBudget(brief)
		if err != nil {
			return err
		}

		printHeader("Cost estimate")
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Role", "Model", "Cost"})
		for _, line := range est.Lines {
			tw.AppendRow(table.Row{line.Role, line.Model, fmt.Sprintf("%.2f", line.Cost)})
		}
		tw.AppendFooter(table.Row{"", "total", fmt.Sprintf("%.2f", est.Total)})
		tw.Render()

		if within {
			fmt.Println(successStyle.Render("within budget"))
		} else {
			fmt.Println(failStyle.Render(fmt.Sprintf("over the %.2f ceiling", cfg.Provision.CostCeiling)))
		}
		return nil
	},
}

func init() {
	estimateCmd.Flags().StringVar(&estimateFlags.brief, "brief", "", "work brief YAML file (required)")
	estimateCmd.Flags().StringVar(&estimateFlags.overlay, "roles-overlay", "", "role catalog overlay YAML file")
	_ = estimateCmd.MarkFlagRequired("brief")
	rootCmd.AddCommand(estimateCmd)
}
