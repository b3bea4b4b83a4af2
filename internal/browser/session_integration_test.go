// internal/browser/session_integration_test.go
package browser_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/zine-verify/internal/browser"
	"github.com/xkilldash9x/zine-verify/internal/config"
)

const testPage = `<!DOCTYPE html>
<html>
<head><title>Zine-ify</title></head>
<body>
  <h1>Zine-ify</h1>
  <input type="file" id="pdf-upload">
  <div id="progress-container" style="display:block">working</div>
  <input type="number" id="grid-rows" value="4">
  <span id="grid-total">(16 pages)</span>
  <script>
    const rows = document.getElementById('grid-rows');
    rows.addEventListener('input', () => {
      const n = parseInt(rows.value || '0', 10);
      document.getElementById('grid-total').textContent = '(' + (n * 4) + ' pages)';
    });
    setTimeout(() => {
      document.getElementById('progress-container').style.display = 'none';
    }, 300);
  </script>
</body>
</html>`

// slowPage mimics a long PDF processing run: the grid appears and the
// progress bar goes away only after revealAfter.
const slowPage = `<!DOCTYPE html>
<html>
<body>
  <div id="progress-container">processing</div>
  <input type="number" id="grid-rows" value="4" style="display:none">
  <div id="collapsed" style="width:200px;height:0">zero height</div>
  <script>
    setTimeout(() => {
      document.getElementById('grid-rows').style.display = 'inline-block';
      document.getElementById('progress-container').style.display = 'none';
    }, 35000);
  </script>
</body>
</html>`

var pixelPNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// chromeAvailable reports whether a browser binary chromedp can find is on PATH.
func chromeAvailable() bool {
	for _, name := range []string{"headless_shell", "headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "chrome"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// testFixture holds the environment for browser integration tests.
type testFixture struct {
	Manager *browser.Manager
	Logger  *zap.Logger
	Server  *httptest.Server
}

func setupBrowserManager(t *testing.T) *testFixture {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	if !chromeAvailable() {
		t.Skip("no Chrome or Chromium binary found on PATH")
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	cfg := config.NewDefaultConfig().Browser
	cfg.ElementTimeout = 2 * time.Second

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testPage))
	}))
	t.Cleanup(server.Close)

	manager := browser.NewManager(cfg, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		assert.NoError(t, manager.Shutdown(ctx))
	})

	return &testFixture{Manager: manager, Logger: logger, Server: server}
}

func TestSessionAgainstStaticApp(t *testing.T) {
	fixture := setupBrowserManager(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	session, err := fixture.Manager.NewSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fixture.Manager.ActiveSessions())
	defer session.Close(ctx)

	require.NoError(t, session.Navigate(ctx, fixture.Server.URL))
	require.NoError(t, session.WaitVisible(ctx, "h1", "Zine-ify", 5*time.Second))
	require.NoError(t, session.WaitHidden(ctx, "#progress-container", 5*time.Second))
	require.NoError(t, session.WaitHidden(ctx, "#never-rendered", time.Second), "absent elements count as hidden")

	pdf := filepath.Join(t.TempDir(), "test-verify.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4\n"), 0o644))
	require.NoError(t, session.SetUploadFiles(ctx, "#pdf-upload", []string{pdf}))

	require.NoError(t, session.Clear(ctx, "#grid-rows"))
	require.NoError(t, session.TypeWithDelay(ctx, "#grid-rows", "10", 20*time.Millisecond))
	time.Sleep(200 * time.Millisecond)

	text, err := session.TextContent(ctx, "#grid-total")
	require.NoError(t, err)
	assert.Contains(t, text, "40 pages")

	shot, err := session.FullScreenshot(ctx)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(shot, pixelPNG), "screenshot should be PNG encoded")

	require.NoError(t, session.Close(ctx))
	require.NoError(t, session.Close(ctx), "second close is a no-op")
	assert.Equal(t, 0, fixture.Manager.ActiveSessions())
}

func TestSessionTypedErrors(t *testing.T) {
	fixture := setupBrowserManager(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	session, err := fixture.Manager.NewSession(ctx)
	require.NoError(t, err)
	defer session.Close(ctx)

	require.NoError(t, session.Navigate(ctx, fixture.Server.URL))

	err = session.Click(ctx, "#does-not-exist")
	var notFound *browser.ElementNotFoundError
	require.True(t, errors.As(err, &notFound), "got %v", err)
	assert.Equal(t, "#does-not-exist", notFound.Selector)

	err = session.WaitVisible(ctx, "#progress-container", "done", 500*time.Millisecond)
	var timeout *browser.TimeoutError
	require.True(t, errors.As(err, &timeout), "got %v", err)

	err = session.Navigate(ctx, "http://127.0.0.1:1/unreachable")
	var navErr *browser.NavigationError
	require.True(t, errors.As(err, &navErr), "got %v", err)
}

func TestSessionLongWaitsOutlastDefaultPolling(t *testing.T) {
	fixture := setupBrowserManager(t)
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(slowPage))
	}))
	defer slow.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	session, err := fixture.Manager.NewSession(ctx)
	require.NoError(t, err)
	defer session.Close(ctx)

	require.NoError(t, session.Navigate(ctx, slow.URL))

	start := time.Now()
	require.NoError(t, session.WaitVisible(ctx, "#grid-rows", "", 60*time.Second))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Second, "grid is revealed after 35s")
	require.NoError(t, session.WaitHidden(ctx, "#progress-container", 60*time.Second))

	// A box with zero height is not rendered.
	require.NoError(t, session.WaitHidden(ctx, "#collapsed", time.Second))
	err = session.WaitVisible(ctx, "#collapsed", "", 500*time.Millisecond)
	var timeout *browser.TimeoutError
	require.True(t, errors.As(err, &timeout), "got %v", err)
	assert.Equal(t, 500*time.Millisecond, timeout.Timeout)
}
