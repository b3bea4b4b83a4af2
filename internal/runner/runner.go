// internal/runner/runner.go
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/zine-verify/internal/browser"
	"github.com/xkilldash9x/zine-verify/internal/config"
	"github.com/xkilldash9x/zine-verify/internal/scenario"
)

const defaultCleanupTimeout = 10 * time.Second

// Options tunes the parts of a run that are not described by the scenario.
type Options struct {
	// FallbackScreenshot is written when a run fails while a page is open.
	FallbackScreenshot string
	// CleanupTimeout bounds the fallback capture and the session close, both
	// of which run on a context detached from the run's cancellation.
	CleanupTimeout time.Duration
}

// OptionsFromConfig derives runner options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FallbackScreenshot: cfg.Verification.FallbackScreenshot,
		CleanupTimeout:     cfg.Browser.ScreenshotTimeout + cfg.Browser.CloseTimeout,
	}
}

// Runner executes scenarios, one browser session per run.
type Runner struct {
	launcher Launcher
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a runner that acquires pages from launcher.
func New(launcher Launcher, opts Options, logger *zap.Logger) *Runner {
	if opts.CleanupTimeout <= 0 {
		opts.CleanupTimeout = defaultCleanupTimeout
	}
	return &Runner{
		launcher: launcher,
		opts:     opts,
		logger:   logger.Named("runner"),
		now:      time.Now,
	}
}

// RunAll runs scenarios one after another. Scenarios not yet started when
// ctx is canceled are skipped.
func (r *Runner) RunAll(ctx context.Context, scenarios []scenario.Scenario) []*Result {
	results := make([]*Result, 0, len(scenarios))
	for _, s := range scenarios {
		if ctx.Err() != nil {
			r.logger.Warn("Run interrupted, skipping remaining scenarios.", zap.String("next", s.Name))
			break
		}
		results = append(results, r.Run(ctx, s))
	}
	return results
}

// Run executes a single scenario. The page is always closed before Run
// returns, and any failure is reported in the Result rather than returned.
func (r *Runner) Run(ctx context.Context, s scenario.Scenario) *Result {
	res := &Result{
		RunID:     uuid.New().String(),
		Scenario:  s.Name,
		StartedAt: r.now(),
	}
	res.visit(StateIdle)
	logger := r.logger.With(zap.String("scenario", s.Name), zap.String("run_id", res.RunID))
	defer func() {
		res.Duration = r.now().Sub(res.StartedAt)
		r.logOutcome(logger, res)
	}()

	logger.Info("Launching browser...")
	page, err := r.launcher.Launch(ctx)
	if err != nil {
		r.fail(logger, res, &launchError{err: err})
		return res
	}
	res.visit(StateLaunched)

	if err := r.execute(ctx, logger, page, s, res); err != nil {
		r.fail(logger, res, err)
		r.captureFallback(ctx, logger, page, res)
	}

	r.closePage(ctx, logger, page)
	res.visit(StateClosed)
	return res
}

func (r *Runner) execute(ctx context.Context, logger *zap.Logger, page Page, s scenario.Scenario, res *Result) error {
	logger.Info("Navigating to app...", zap.String("url", s.URL))
	if err := page.Navigate(ctx, s.URL); err != nil {
		return err
	}
	res.visit(StateNavigated)

	if up := s.Upload; up != nil {
		fixture, err := filepath.Abs(up.Fixture)
		if err != nil {
			return fmt.Errorf("failed to resolve fixture path: %w", err)
		}
		if _, err := os.Stat(fixture); err != nil {
			return fmt.Errorf("fixture unavailable: %w", err)
		}
		logger.Info("Uploading PDF...", zap.String("fixture", fixture))
		if err := page.SetUploadFiles(ctx, up.Selector, []string{fixture}); err != nil {
			return err
		}
		res.visit(StateUploaded)
	}

	res.visit(StateWaitingConditions)
	for _, w := range s.Waits {
		logger.Info("Waiting for condition...", zap.Stringer("condition", w))
		if err := waitFor(ctx, page, w); err != nil {
			return err
		}
	}
	if err := page.Sleep(ctx, s.Settle); err != nil {
		return err
	}

	if in := s.Interaction; in != nil {
		res.visit(StateInteracting)
		if err := interact(ctx, logger, page, in); err != nil {
			return err
		}
	}

	if a := s.Assertion; a != nil {
		res.visit(StateAsserting)
		logger.Info("Checking text content...", zap.String("selector", a.Selector))
		text, err := page.TextContent(ctx, a.Selector)
		if err != nil {
			return err
		}
		if strings.Contains(text, a.Contains) {
			logger.Info("Assertion passed.", zap.String("selector", a.Selector), zap.String("expected", a.Contains))
		} else {
			m := AssertionMismatch{Selector: a.Selector, Expected: a.Contains, Found: strings.TrimSpace(text)}
			res.Mismatches = append(res.Mismatches, m)
			logger.Warn("Assertion mismatch, continuing to capture.", zap.Error(m))
		}
	}

	logger.Info("Taking screenshot...", zap.String("path", s.Screenshot))
	data, err := page.FullScreenshot(ctx)
	if err != nil {
		return err
	}
	if err := writeScreenshot(s.Screenshot, data); err != nil {
		return err
	}
	res.Screenshot = s.Screenshot
	res.visit(StateCaptured)
	return nil
}

func waitFor(ctx context.Context, page Page, w scenario.WaitCondition) error {
	switch w.State {
	case scenario.StateVisible:
		return page.WaitVisible(ctx, w.Selector, w.Text, w.Timeout)
	case scenario.StateHidden:
		return page.WaitHidden(ctx, w.Selector, w.Timeout)
	case scenario.StateAttached:
		return page.WaitAttached(ctx, w.Selector, w.Timeout)
	case scenario.StateDetached:
		return page.WaitDetached(ctx, w.Selector, w.Timeout)
	default:
		return fmt.Errorf("unsupported wait state %q", w.State)
	}
}

func interact(ctx context.Context, logger *zap.Logger, page Page, in *scenario.Interaction) error {
	if in.Click {
		if err := page.Click(ctx, in.Selector); err != nil {
			return err
		}
	}
	if in.Clear {
		if err := page.Clear(ctx, in.Selector); err != nil {
			return err
		}
	}
	if in.Text != "" {
		logger.Info("Typing...", zap.String("selector", in.Selector), zap.String("text", in.Text), zap.Duration("key_delay", in.KeyDelay))
		if err := page.TypeWithDelay(ctx, in.Selector, in.Text, in.KeyDelay); err != nil {
			return err
		}
	}
	return page.Sleep(ctx, in.Settle)
}

func (r *Runner) fail(logger *zap.Logger, res *Result, err error) {
	res.Err = err
	res.FailureKind = Classify(err)
	res.visit(StateFailed)
	logger.Error("Verification failed.", zap.String("kind", res.FailureKind), zap.Error(err))
}

// captureFallback takes the diagnostic screenshot on a context that survives
// cancellation of ctx. Failures are logged only.
func (r *Runner) captureFallback(ctx context.Context, logger *zap.Logger, page Page, res *Result) {
	if r.opts.FallbackScreenshot == "" {
		return
	}
	captureCtx, cancel := context.WithTimeout(browser.Detach(ctx), r.opts.CleanupTimeout)
	defer cancel()

	data, err := page.FullScreenshot(captureCtx)
	if err == nil {
		err = writeScreenshot(r.opts.FallbackScreenshot, data)
	}
	if err != nil {
		logger.Warn("Could not capture fallback screenshot.", zap.Error(err))
		return
	}
	res.FallbackScreenshot = r.opts.FallbackScreenshot
	res.visit(StateCapturedFallback)
	logger.Info("Fallback screenshot saved.", zap.String("path", r.opts.FallbackScreenshot))
}

func (r *Runner) closePage(ctx context.Context, logger *zap.Logger, page Page) {
	closeCtx, cancel := context.WithTimeout(browser.Detach(ctx), r.opts.CleanupTimeout)
	defer cancel()
	if err := page.Close(closeCtx); err != nil {
		logger.Warn("Error closing browser session.", zap.Error(err))
	}
}

func (r *Runner) logOutcome(logger *zap.Logger, res *Result) {
	fields := []zap.Field{
		zap.Duration("duration", res.Duration),
		zap.Int("mismatches", len(res.Mismatches)),
	}
	switch {
	case !res.Passed():
		logger.Error("Run finished with failure.", append(fields, zap.String("fallback_screenshot", res.FallbackScreenshot))...)
	case len(res.Mismatches) > 0:
		logger.Warn("Run finished with assertion mismatches.", append(fields, zap.String("screenshot", res.Screenshot))...)
	default:
		logger.Info("Run finished successfully.", append(fields, zap.String("screenshot", res.Screenshot))...)
	}
}

// writeScreenshot writes data to path, creating parent directories. Existing
// files are overwritten.
func writeScreenshot(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create screenshot directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}
