// internal/runner/page.go
package runner

import (
	"context"
	"time"

	"github.com/xkilldash9x/zine-verify/internal/browser"
)

// Page is the set of browser primitives a scenario run needs. *browser.Session
// implements it.
type Page interface {
	Navigate(ctx context.Context, url string) error
	SetUploadFiles(ctx context.Context, selector string, files []string) error
	WaitVisible(ctx context.Context, selector, text string, timeout time.Duration) error
	WaitHidden(ctx context.Context, selector string, timeout time.Duration) error
	WaitAttached(ctx context.Context, selector string, timeout time.Duration) error
	WaitDetached(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	Clear(ctx context.Context, selector string) error
	TypeWithDelay(ctx context.Context, selector, text string, delay time.Duration) error
	TextContent(ctx context.Context, selector string) (string, error)
	Sleep(ctx context.Context, d time.Duration) error
	FullScreenshot(ctx context.Context) ([]byte, error)
	Close(ctx context.Context) error
}

var _ Page = (*browser.Session)(nil)

// Launcher acquires a fresh page for a single run.
type Launcher interface {
	Launch(ctx context.Context) (Page, error)
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context) (Page, error)

func (f LauncherFunc) Launch(ctx context.Context) (Page, error) { return f(ctx) }

// BrowserLauncher launches each page as a new session of m.
func BrowserLauncher(m *browser.Manager) Launcher {
	return LauncherFunc(func(ctx context.Context) (Page, error) {
		session, err := m.NewSession(ctx)
		if err != nil {
			return nil, err
		}
		return session, nil
	})
}
