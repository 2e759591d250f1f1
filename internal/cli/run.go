package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/config"
	"github.com/adyen/shopharness/internal/scenario"
	"github.com/adyen/shopharness/internal/session"
	"github.com/adyen/shopharness/internal/suite"
)

// ErrScenariosFailed is returned when any scenario did not pass.
var ErrScenariosFailed = errors.New("scenarios did not pass")

// RunDependencies holds everything needed to run the suite
type RunDependencies struct {
	Config   *config.HarnessConfig
	Launcher browser.Launcher
	Logger   *zap.Logger
	// Out receives the results table.
	Out io.Writer
	// Patterns select scenarios by name or feature. None selects all.
	Patterns []string
}

// SuiteOptions derives the suite options from cfg.
func SuiteOptions(cfg *config.HarnessConfig) suite.Options {
	return suite.Options{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	}
}

// RunSuite runs the selected scenarios and prints one line per result.
func RunSuite(ctx context.Context, deps RunDependencies) (scenario.Summary, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config

	selected := scenario.Select(suite.Scenarios(SuiteOptions(cfg)), deps.Patterns...)
	if len(selected) == 0 {
		return scenario.Summary{}, fmt.Errorf("no scenario matches %q", deps.Patterns)
	}

	opts, err := cfg.BrowserOptions()
	if err != nil {
		return scenario.Summary{}, err
	}
	runner, err := scenario.NewRunner(scenario.Config{
		Launcher:    deps.Launcher,
		Session:     session.Config{Driver: cfg.Driver, Options: opts},
		Wait:        cfg.Wait(),
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.ScenarioTimeout,
		Workers:     cfg.Workers,
		ArtifactDir: cfg.ArtifactDir,
		AllureDir:   cfg.AllureDir,
	}, logger)
	if err != nil {
		return scenario.Summary{}, fmt.Errorf("failed to create runner: %w", err)
	}

	logger.Info("running scenarios",
		zap.Int("count", len(selected)),
		zap.String("base_url", cfg.BaseURL),
		zap.String("driver", cfg.Driver),
		zap.Int("workers", cfg.Workers))

	results, err := runner.Run(ctx, selected)
	if results == nil {
		return scenario.Summary{}, err
	}
	if deps.Out != nil {
		if werr := PrintResults(deps.Out, results); werr != nil {
			logger.Warn("failed to print results", zap.Error(werr))
		}
	}

	summary := scenario.Summarize(results)
	logger.Info("run finished", zap.Stringer("summary", summary))
	if err != nil {
		return summary, err
	}
	if !summary.OK() {
		return summary, fmt.Errorf("%w: %s", ErrScenariosFailed, summary)
	}
	return summary, nil
}

// PrintResults writes one aligned line per result followed by the summary.
func PrintResults(w io.Writer, results []scenario.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OUTCOME\tSCENARIO\tDURATION\tERROR")
	for _, r := range results {
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Outcome, r.Name, r.Duration().Round(time.Millisecond), msg)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, scenario.Summarize(results))
	return err
}

// ListScenarios writes the feature, story and name of each scenario.
func ListScenarios(w io.Writer, scenarios []scenario.Scenario) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FEATURE\tSTORY\tSCENARIO")
	for _, sc := range scenarios {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", sc.Feature, sc.Story, sc.Name)
	}
	return tw.Flush()
}
