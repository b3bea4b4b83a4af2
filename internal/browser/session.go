// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/zine-verify/internal/config"
)

const (
	pollInterval = 100 * time.Millisecond
	// fullScreenshotQuality of 100 makes the capture lossless PNG.
	fullScreenshotQuality = 100
)

// visibleWithTextJS resolves true once the element exists, has a non-empty box, is not
// hidden by style, and (optionally) contains the expected text.
const visibleWithTextJS = `(sel, text) => {
	const el = document.querySelector(sel);
	if (!el) return false;
	const style = window.getComputedStyle(el);
	if (style.display === 'none' || style.visibility === 'hidden') return false;
	const rect = el.getBoundingClientRect();
	if (rect.width === 0 || rect.height === 0) return false;
	return !text || (el.textContent || '').includes(text);
}`

// hiddenJS treats a missing element as hidden.
const hiddenJS = `(sel) => {
	const el = document.querySelector(sel);
	if (!el) return true;
	const style = window.getComputedStyle(el);
	if (style.display === 'none' || style.visibility === 'hidden') return true;
	const rect = el.getBoundingClientRect();
	return rect.width === 0 || rect.height === 0;
}`

const dispatchInputJS = `(() => {
	const el = document.querySelector(%s);
	if (el) {
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
	}
	return true;
})()`

// Session is a single browser tab in its own browser process.
type Session struct {
	id     string
	cfg    config.BrowserConfig
	logger *zap.Logger

	ctx         context.Context // chromedp tab context.
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
	onClose   func()
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string { return s.id }

// run executes actions against the tab, bounded by ctx and timeout.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		opCtx, cancelTimeout = context.WithTimeout(opCtx, timeout)
		defer cancelTimeout()
	}
	return chromedp.Run(opCtx, actions...)
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))
	if err := s.run(ctx, s.cfg.NavigationTimeout, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NavigationError{URL: url, Timeout: s.cfg.NavigationTimeout, Err: err}
	}
	return nil
}

// resolve waits for selector to be present in the DOM within the element timeout.
func (s *Session) resolve(ctx context.Context, selector string) error {
	if err := s.run(ctx, s.cfg.ElementTimeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ElementNotFoundError{Selector: selector, Timeout: s.cfg.ElementTimeout, Err: err}
	}
	return nil
}

// element resolves selector and then runs actions on it.
func (s *Session) element(ctx context.Context, selector, op string, actions ...chromedp.Action) error {
	if err := s.resolve(ctx, selector); err != nil {
		return err
	}
	if err := s.run(ctx, s.cfg.ElementTimeout, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s on '%s' failed: %w", op, selector, err)
	}
	return nil
}

// SetUploadFiles attaches local files to a file input.
func (s *Session) SetUploadFiles(ctx context.Context, selector string, files []string) error {
	s.logger.Debug("Setting upload files.", zap.String("selector", selector), zap.Strings("files", files))
	return s.element(ctx, selector, "upload", chromedp.SetUploadFiles(selector, files, chromedp.ByQuery))
}

// Click clicks the first element matching selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	return s.element(ctx, selector, "click", chromedp.Click(selector, chromedp.ByQuery))
}

// Clear empties an input and fires input/change so page listeners see it.
func (s *Session) Clear(ctx context.Context, selector string) error {
	quoted, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(selector)
	if err != nil {
		return fmt.Errorf("failed to encode selector: %w", err)
	}
	var ok bool
	return s.element(ctx, selector, "clear",
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(dispatchInputJS, quoted), &ok),
	)
}

// TypeWithDelay focuses selector and sends text one key at a time, pausing
// delay after each key.
func (s *Session) TypeWithDelay(ctx context.Context, selector, text string, delay time.Duration) error {
	actions := []chromedp.Action{chromedp.Focus(selector, chromedp.ByQuery)}
	for _, r := range text {
		actions = append(actions, chromedp.KeyEvent(string(r)))
		if delay > 0 {
			actions = append(actions, chromedp.Sleep(delay))
		}
	}
	if err := s.resolve(ctx, selector); err != nil {
		return err
	}
	// Typing time is proportional to the text; the element timeout covers the rest.
	budget := s.cfg.ElementTimeout + time.Duration(len(text))*delay
	if err := s.run(ctx, budget, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("type into '%s' failed: %w", selector, err)
	}
	return nil
}

// TextContent returns the text content of the first element matching selector.
func (s *Session) TextContent(ctx context.Context, selector string) (string, error) {
	var text string
	err := s.element(ctx, selector, "read text", chromedp.TextContent(selector, &text, chromedp.ByQuery))
	return text, err
}

// WaitVisible waits until selector is rendered and, if text is non-empty,
// contains text.
func (s *Session) WaitVisible(ctx context.Context, selector, text string, timeout time.Duration) error {
	state := "visible"
	if text != "" {
		state = fmt.Sprintf("visible with text %q", text)
	}
	var ok bool
	return s.wait(ctx, selector, state, timeout,
		chromedp.PollFunction(visibleWithTextJS, &ok,
			chromedp.WithPollingArgs(selector, text),
			chromedp.WithPollingInterval(pollInterval),
			chromedp.WithPollingTimeout(timeout),
		),
	)
}

// WaitHidden waits until selector is absent or not rendered.
func (s *Session) WaitHidden(ctx context.Context, selector string, timeout time.Duration) error {
	var ok bool
	return s.wait(ctx, selector, "hidden", timeout,
		chromedp.PollFunction(hiddenJS, &ok,
			chromedp.WithPollingArgs(selector),
			chromedp.WithPollingInterval(pollInterval),
			chromedp.WithPollingTimeout(timeout),
		),
	)
}

// WaitAttached waits until selector is present in the DOM.
func (s *Session) WaitAttached(ctx context.Context, selector string, timeout time.Duration) error {
	return s.wait(ctx, selector, "attached", timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
}

// WaitDetached waits until no element matches selector.
func (s *Session) WaitDetached(ctx context.Context, selector string, timeout time.Duration) error {
	return s.wait(ctx, selector, "detached", timeout, chromedp.WaitNotPresent(selector, chromedp.ByQuery))
}

func (s *Session) wait(ctx context.Context, selector, state string, timeout time.Duration, action chromedp.Action) error {
	s.logger.Debug("Waiting for element.", zap.String("selector", selector), zap.String("state", state), zap.Duration("timeout", timeout))
	if err := s.run(ctx, timeout, action); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TimeoutError{Selector: selector, State: state, Timeout: timeout, Err: err}
	}
	return nil
}

// FullScreenshot captures the whole page as PNG.
func (s *Session) FullScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, s.cfg.ScreenshotTimeout, chromedp.FullScreenshot(&buf, fullScreenshotQuality)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Close closes the tab and terminates the browser process. It is safe to
// call more than once; only the first call does any work.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing session.")

		closeCtx, cancel := context.WithTimeout(Detach(ctx), s.cfg.CloseTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(s.ctx) }()

		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.closeErr = fmt.Errorf("failed to close browser tab: %w", err)
			}
		case <-closeCtx.Done():
			s.closeErr = fmt.Errorf("timed out closing browser after %s", s.cfg.CloseTimeout)
		}

		s.cancel()
		s.allocCancel()

		if s.onClose != nil {
			s.onClose()
		}
	})
	return s.closeErr
}

// Sleep pauses for d unless ctx is done first.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
