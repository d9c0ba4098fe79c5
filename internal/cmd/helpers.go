package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/crewline/crewline/internal/config"
	"github.com/crewline/crewline/internal/logging"
	"github.com/crewline/crewline/internal/worker"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// loadBrief reads a work brief from a YAML file.
func loadBrief(path string) (worker.Brief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading brief: %w", err)
	}
	var brief worker.Brief
	if err := yaml.Unmarshal(data, &brief); err != nil {
		return nil, fmt.Errorf("parsing brief: %w", err)
	}
	return brief, nil
}

// buildCatalog returns the role catalog, with the configured overlay
// applied when one is set.
func buildCatalog(overlay string) (*worker.Catalog, error) {
	catalog := worker.DefaultCatalog()
	if overlay != "" {
		if err := catalog.LoadOverlay(overlay); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// buildLogger creates the CLI logger from configuration.
func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
}

// simulateFactory builds executors for dry-run orchestration: each worker
// acknowledges its items without invoking a model, so routing, strategy,
// phasing, and supervision can be exercised end to end.
func simulateFactory(role worker.RoleDefinition) (worker.Executor, error) {
	return func(ctx context.Context, req worker.Request, h *worker.Handle) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Millisecond):
		}
		return fmt.Sprintf("[%s] handled %q", role.Name, req.Title), nil
	}, nil
}

// statusText renders a success flag with color.
func statusText(ok bool) string {
	if ok {
		return successStyle.Render("ok")
	}
	return failStyle.Render("failed")
}

func printHeader(title string) {
	fmt.Println(headerStyle.Render(title))
}
