// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/zine-verify/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager launches one isolated browser process per session and keeps track
// of the sessions that are still open.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	sessions map[string]*Session
	mu       sync.Mutex
	wg       sync.WaitGroup // all sessions must be closed before Shutdown returns.
}

// NewManager creates a browser manager. No process is started until
// NewSession is called.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		logger:   logger.Named("browser_manager"),
		sessions: make(map[string]*Session),
	}
}

// NewSession starts a fresh browser process with a single tab. The launch is
// bounded by the configured launch timeout and by ctx. The browser itself is
// detached from ctx so a canceled run can still take a fallback screenshot;
// callers must Close the session.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	id := uuid.New().String()
	logger := m.logger.With(zap.String("session_id", id))
	logger.Debug("Launching browser.", zap.Bool("headless", m.cfg.Headless))

	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), DefaultAllocatorOptions(m.cfg)...)

	tabOpts := []chromedp.ContextOption{
		chromedp.WithErrorf(logger.Sugar().Errorf),
	}
	if m.cfg.Debug {
		tabOpts = append(tabOpts, chromedp.WithDebugf(logger.Sugar().Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, tabOpts...)

	// The first Run on a tab must use the tab context itself, otherwise the
	// target would be bound to a short-lived child. Bound it with timers.
	launchTimer := time.AfterFunc(m.cfg.LaunchTimeout, tabCancel)
	stopOnCancel := context.AfterFunc(ctx, tabCancel)
	var product string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			_, product, _, _, _, err = cdpbrowser.GetVersion().Do(ctx)
			return err
		}),
	)
	timerFired := !launchTimer.Stop()
	interrupted := !stopOnCancel()

	// Either timer may have canceled the tab after Run returned, so a nil err
	// alone does not mean the tab is usable.
	if err := launchOutcome(ctx, err, timerFired, interrupted, m.cfg.LaunchTimeout); err != nil {
		tabCancel()
		allocCancel()
		return nil, err
	}

	session := &Session{
		id:          id,
		cfg:         m.cfg,
		logger:      logger.Named("session"),
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
	}

	m.wg.Add(1)
	session.onClose = func() {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		m.wg.Done()
		logger.Debug("Session removed from manager.")
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	logger.Info("Browser session started.", zap.String("browser_version", product))
	return session, nil
}

// launchOutcome turns the result of the first tab Run into a launch error.
// timerFired and interrupted report whether the launch timer or the ctx hook
// canceled the tab.
func launchOutcome(ctx context.Context, runErr error, timerFired, interrupted bool, timeout time.Duration) error {
	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("browser launch interrupted: %w", ctx.Err())
	case interrupted:
		return fmt.Errorf("browser launch interrupted: %w", context.Canceled)
	case timerFired:
		if runErr == nil {
			runErr = context.DeadlineExceeded
		}
		return fmt.Errorf("browser launch timed out after %s: %w", timeout, runErr)
	case runErr != nil:
		return fmt.Errorf("failed to launch browser: %w", runErr)
	}
	return nil
}

// ActiveSessions reports how many sessions have not been closed yet.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every open session and waits for their teardown to finish.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	if len(open) > 0 {
		m.logger.Warn("Closing sessions left open.", zap.Int("count", len(open)))
	}

	var errs []error
	var g errgroup.Group
	for _, s := range open {
		g.Go(func() error { return s.Close(ctx) })
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	grace := time.NewTimer(shutdownGracePeriod)
	defer grace.Stop()

	select {
	case <-done:
		m.logger.Debug("All sessions closed.")
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("shutdown interrupted: %w", ctx.Err()))
	case <-grace.C:
		errs = append(errs, errors.New("timed out waiting for sessions to close"))
	}
	return errors.Join(errs...)
}
