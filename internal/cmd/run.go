package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/crewline/crewline/internal/config"
	"github.com/crewline/crewline/internal/engine"
	"github.com/crewline/crewline/internal/event"
	"github.com/crewline/crewline/internal/job"
	"github.com/crewline/crewline/internal/router"
	"github.com/crewline/crewline/internal/supervise"
	"github.com/crewline/crewline/internal/task"
	"github.com/crewline/crewline/internal/text"
	"github.com/crewline/crewline/internal/worker"
)

var runFlags struct {
	brief    string
	backlog  string
	strategy string
	mode     string
	overlay  string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Provision, route, execute, and supervise a job",
	Long: `Run orchestrates a full job: the brief selects the worker roster, the
backlog is routed to workers, executed under the recommended (or overridden)
strategy, and supervised in real time. Workers run in simulation; wiring a
model provider in is the embedding application's concern.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if runFlags.mode != "" {
			cfg.Supervision.Mode = runFlags.mode
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			return config.ValidationErrors(errs)
		}

		brief, err := loadBrief(runFlags.brief)
		if err != nil {
			return err
		}
		backlog, err := task.LoadBacklog(runFlags.backlog)
		if err != nil {
			return err
		}

		logger, err := buildLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Close() }()

		jc := job.New(
			job.WithLogger(logger),
			job.WithBus(event.NewBus(event.WithCapacity(cfg.EventBus.Capacity), event.WithLogger(logger))),
			job.WithCostCeiling(cfg.Provision.CostCeiling),
		)

		monitor := event.NewMonitor(jc.Bus,
			event.WithMonitorLogger(jc.Logger),
			event.WithPopTimeout(time.Duration(cfg.EventBus.PopTimeoutMs)*time.Millisecond),
		)
		if err := monitor.Start(); err != nil {
			return err
		}
		defer monitor.Stop()

		catalog, err := buildCatalog(runFlags.overlay)
		if err != nil {
			return err
		}

		provOpts := []worker.ProvisionerOption{
			worker.WithBus(jc.Bus),
			worker.WithLogger(jc.Logger.WithPhase("provisioning")),
		}
		if cfg.Provision.MaxRolesLimited() {
			provOpts = append(provOpts, worker.WithMaxDynamicRoles(cfg.Provision.MaxDynamicRoles))
		}
		if cfg.Provision.CeilingSet() {
			provOpts = append(provOpts, worker.WithCostCeiling(cfg.Provision.CostCeiling))
		}
		prov, err := worker.NewProvisioner(catalog, simulateFactory, provOpts...)
		if err != nil {
			return err
		}

		within, err := prov.WithinBudget(brief)
		if err != nil {
			return err
		}
		if !within {
			return fmt.Errorf("estimated cost exceeds the configured ceiling of %.2f", cfg.Provision.CostCeiling)
		}

		roster, err := prov.Provision(brief)
		if err != nil {
			return err
		}
		est, err := prov.EstimateCost(brief)
		if err != nil {
			return err
		}
		for _, line := range est.Lines {
			jc.Costs.Record(line.Role, line.Cost)
		}

		r := router.New(router.WithLogger(jc.Logger.WithPhase("routing")))
		if task.HasDependencies(backlog) {
			backlog = task.DependencyOrder(backlog)
		}
		assigned, err := r.Assign(backlog, roster)
		if err != nil {
			return err
		}

		strategy := r.RecommendStrategy(backlog, roster)
		if runFlags.strategy != "" {
			strategy = router.Strategy(runFlags.strategy)
		}

		sup := supervise.New(
			supervise.Mode(cfg.Supervision.Mode),
			supervise.WithBus(jc.Bus),
			supervise.WithLogger(jc.Logger.WithPhase("supervision")),
			supervise.WithThresholds(supervise.Thresholds{
				TestCoverage:    cfg.Supervision.TestCoverageThreshold,
				DocCompleteness: cfg.Supervision.DocCompletenessThreshold,
				QualityScore:    supervise.DefaultThresholds().QualityScore,
			}),
		)
		sup.Attach()
		defer sup.Detach()

		eng := engine.New(
			engine.WithBus(jc.Bus),
			engine.WithRouter(r),
			engine.WithLogger(jc.Logger.WithPhase("execution")),
		)
		report, err := eng.Execute(cmd.Context(), strategy, assigned)
		if err != nil {
			return err
		}

		renderExecutionReport(report)
		renderSupervisionReport(sup.Report())
		renderBusMetrics(monitor.Metrics())
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runFlags.brief, "brief", "", "work brief YAML file (required)")
	runCmd.Flags().StringVar(&runFlags.backlog, "backlog", "", "backlog YAML file (required)")
	runCmd.Flags().StringVar(&runFlags.strategy, "strategy", "", "override strategy: sequential|parallel|hybrid")
	runCmd.Flags().StringVar(&runFlags.mode, "mode", "", "supervision mode: professional|standard|interactive")
	runCmd.Flags().StringVar(&runFlags.overlay, "roles-overlay", "", "role catalog overlay YAML file")
	_ = runCmd.MarkFlagRequired("brief")
	_ = runCmd.MarkFlagRequired("backlog")
	rootCmd.AddCommand(runCmd)
}

func renderExecutionReport(report *engine.ExecutionReport) {
	printHeader("Execution")
	fmt.Printf("strategy: %s   state: %s   duration: %s\n",
		report.Strategy, report.State, report.Duration.Round(1e6))
	fmt.Printf("items: %d   succeeded: %s   failed: %s\n",
		report.Total,
		successStyle.Render(fmt.Sprintf("%d", report.Succeeded)),
		failStyle.Render(fmt.Sprintf("%d", report.Failed)),
	)

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Item", "Role", "Status", "Duration"})
	for _, res := range report.Results {
		tw.AppendRow(table.Row{res.ItemTitle, res.Role, statusText(res.Success), res.Duration.Round(1e6)})
	}
	tw.Render()

	if len(report.Phases) > 0 {
		printHeader("Phases")
		pw := table.NewWriter()
		pw.SetOutputMirror(os.Stdout)
		pw.AppendHeader(table.Row{"Phase", "Tasks", "Status", "Duration"})
		for _, phase := range report.Phases {
			pw.AppendRow(table.Row{phase.Phase, len(phase.Results), statusText(phase.Success), phase.Duration.Round(1e6)})
		}
		pw.Render()
	}
}

func renderSupervisionReport(report *supervise.SupervisionReport) {
	printHeader("Supervision")
	fmt.Printf("checks: %d   auto-fixes: %d   escalations: %d   success rate: %.0f%%\n",
		report.ChecksPerformed, report.AutoFixes, report.Escalations, report.SuccessRate*100)

	if len(report.Issues) == 0 {
		fmt.Println(successStyle.Render("no issues detected"))
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Issue", "Severity", "Role", "Description"})
	for _, issue := range report.Issues {
		severity := string(issue.Severity)
		if issue.Severity == supervise.SeverityHigh {
			severity = failStyle.Render(severity)
		} else {
			severity = warnStyle.Render(severity)
		}
		tw.AppendRow(table.Row{issue.Kind, severity, issue.Role, text.Clip(issue.Description, 60)})
	}
	tw.Render()

	iw := table.NewWriter()
	iw.SetOutputMirror(os.Stdout)
	iw.AppendHeader(table.Row{"Intervention", "Issue", "Action"})
	for _, iv := range report.Interventions {
		iw.AppendRow(table.Row{iv.Kind, iv.Issue.Kind, iv.Action})
	}
	iw.Render()
}

func renderBusMetrics(m event.Metrics) {
	fmt.Println(dimStyle.Render(fmt.Sprintf(
		"events processed: %d   dropped: %d   tasks: %d completed / %d failed   violations: %d   interventions: %d",
		m.EventsProcessed, m.EventsDropped, m.TasksCompleted, m.TasksFailed, m.Violations, m.Interventions,
	)))
}
