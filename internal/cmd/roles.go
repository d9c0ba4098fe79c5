package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/crewline/crewline/internal/config"
	"github.com/crewline/crewline/internal/worker"
)

var rolesFlags struct {
	brief   string
	overlay string
}

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the role catalog, or preview the roster a brief would provision",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := buildCatalog(rolesFlags.overlay)
		if err != nil {
			return err
		}

		if rolesFlags.brief == "" {
			renderCatalog(catalog)
			return nil
		}

		brief, err := loadBrief(rolesFlags.brief)
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
		prov, err := worker.NewProvisioner(catalog, simulateFactory, opts...)
		if err != nil {
			return err
		}
		roster, err := prov.Provision(brief)
		if err != nil {
			return err
		}

		printHeader("Provisioned roster")
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Role", "Title", "Model", "Kind"})
		for _, h := range roster.Handles() {
			kind := "specialist"
			if worker.IsBaseRole(h.Role.Name) {
				kind = "base"
			}
			tw.AppendRow(table.Row{h.Role.Name, h.Role.Title, h.Role.Model, kind})
		}
		tw.Render()
		fmt.Printf("%d workers (%d specialists)\n", roster.Len(), roster.SpecialistCount())
		return nil
	},
}

func renderCatalog(catalog *worker.Catalog) {
	printHeader("Role catalog")
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Role", "Title", "Model", "Priority", "Triggers"})
	for _, role := range catalog.Roles() {
		tw.AppendRow(table.Row{
			role.Name, role.Title, role.Model, role.Priority,
			strings.Join(role.Keywords, ", "),
		})
	}
	tw.Render()
}

func init() {
	rolesCmd.Flags().StringVar(&rolesFlags.brief, "brief", "", "preview provisioning for this brief YAML file")
	rolesCmd.Flags().StringVar(&rolesFlags.overlay, "roles-overlay", "", "role catalog overlay YAML file")
	rootCmd.AddCommand(rolesCmd)
}
