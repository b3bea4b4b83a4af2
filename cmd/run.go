package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/zine-verify/internal/browser"
	"github.com/xkilldash9x/zine-verify/internal/config"
	"github.com/xkilldash9x/zine-verify/internal/observability"
	"github.com/xkilldash9x/zine-verify/internal/reporting"
	"github.com/xkilldash9x/zine-verify/internal/runner"
	"github.com/xkilldash9x/zine-verify/internal/scenario"
)

// ErrVerificationFailed is returned in strict mode when any run failed or
// recorded an assertion mismatch.
var ErrVerificationFailed = errors.New("verification failed")

const shutdownTimeout = 15 * time.Second

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	var (
		all          bool
		strict       bool
		reportPath   string
		reportFormat string
	)

	runCmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Runs verification scenarios against the app and captures screenshots",
		Example: `  zine-verify run load
  zine-verify run blank-page debounce --url http://localhost:5173
  zine-verify run --all --strict --report verification/report.json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("--all cannot be combined with scenario names")
			}
			if !all && len(args) == 0 {
				return errors.New("specify at least one scenario or use --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			cfg.Run = config.RunConfig{
				Scenarios:  args,
				All:        all,
				Strict:     strict,
				ReportPath: reportPath,
			}

			logger := observability.GetLogger()
			manager := browser.NewManager(cfg.Browser, logger)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(browser.Detach(ctx), shutdownTimeout)
				defer cancel()
				if err := manager.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Error during browser manager shutdown", zap.Error(err))
				}
			}()

			return runScenarios(ctx, cfg, runner.BrowserLauncher(manager), reportFormat, logger)
		},
	}

	runCmd.Flags().BoolVarP(&all, "all", "a", false, "Run every scenario in the catalog.")
	runCmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero if any run fails or records an assertion mismatch.")
	runCmd.Flags().StringVarP(&reportPath, "report", "o", "", "Write a run report to this path ('stdout' for standard output).")
	runCmd.Flags().StringVarP(&reportFormat, "report-format", "f", "json", "Format of the run report ('json', 'text' or 'junit').")

	// Overrides for config values.
	runCmd.Flags().String("url", "", "Target app URL. (Overrides config/env)")
	runCmd.Flags().String("output-dir", "", "Directory for screenshots. (Overrides config/env)")
	runCmd.Flags().String("fixtures-dir", "", "Directory holding the PDF fixtures. (Overrides config/env)")
	runCmd.Flags().Bool("headless", true, "Run the browser headless. (Overrides config/env)")
	runCmd.Flags().String("exec-path", "", "Path to the Chrome/Chromium binary. (Overrides config/env)")
	runCmd.Flags().String("scenarios-file", "", "YAML file with extra or overriding scenarios. (Overrides config/env)")
	bindFlag(runCmd, "url", "target.url")
	bindFlag(runCmd, "output-dir", "verification.output_dir")
	bindFlag(runCmd, "fixtures-dir", "verification.fixtures_dir")
	bindFlag(runCmd, "headless", "browser.headless")
	bindFlag(runCmd, "exec-path", "browser.exec_path")
	bindFlag(runCmd, "scenarios-file", "scenarios.file")

	return runCmd
}

// runScenarios resolves the requested scenarios, runs them in order and
// writes the optional report.
func runScenarios(ctx context.Context, cfg *config.Config, launcher runner.Launcher, reportFormat string, logger *zap.Logger) error {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	var names []string
	if !cfg.Run.All {
		names = cfg.Run.Scenarios
	}
	selected, err := catalog.Select(names)
	if err != nil {
		return err
	}

	// The report target is opened before any browser work starts.
	var reporter reporting.Reporter
	if cfg.Run.ReportPath != "" {
		reporter, err = reporting.New(reportFormat, cfg.Run.ReportPath, Version)
		if err != nil {
			return fmt.Errorf("failed to create reporter: %w", err)
		}
	}

	logger.Info("Starting verification",
		zap.String("target", cfg.Target.URL),
		zap.Strings("scenarios", scenarioNames(selected)),
		zap.Bool("strict", cfg.Run.Strict),
	)

	r := runner.New(launcher, runner.OptionsFromConfig(cfg), logger)
	results := r.RunAll(ctx, selected)

	if reporter != nil {
		for _, res := range results {
			if err := reporter.Write(res); err != nil {
				logger.Error("Failed to add result to report", zap.String("scenario", res.Scenario), zap.Error(err))
			}
		}
		if err := reporter.Close(); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info("Run report written", zap.String("path", cfg.Run.ReportPath))
	}

	var failed, mismatched int
	for _, res := range results {
		switch {
		case !res.Passed():
			failed++
		case !res.Clean():
			mismatched++
		}
	}
	logger.Info("Verification complete",
		zap.Int("runs", len(results)),
		zap.Int("failed", failed),
		zap.Int("with_mismatches", mismatched),
	)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("verification interrupted: %w", err)
	}
	if cfg.Run.Strict && failed+mismatched > 0 {
		return fmt.Errorf("%w: %d failed, %d with assertion mismatches", ErrVerificationFailed, failed, mismatched)
	}
	return nil
}

// loadCatalog returns the built-in scenarios merged with the configured
// scenarios file, if any.
func loadCatalog(cfg *config.Config) (*scenario.Catalog, error) {
	defaults := scenario.DefaultsFromConfig(cfg)
	catalog, err := scenario.NewCatalog(scenario.Builtins(defaults)...)
	if err != nil {
		return nil, fmt.Errorf("invalid built-in scenarios: %w", err)
	}
	if cfg.Scenarios.File == "" {
		return catalog, nil
	}

	extra, err := scenario.LoadFile(cfg.Scenarios.File, defaults)
	if err != nil {
		return nil, err
	}
	return catalog.Merge(extra...)
}

func scenarioNames(scenarios []scenario.Scenario) []string {
	names := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	return names
}
