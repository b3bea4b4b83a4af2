// internal/browser/allocator_test.go
package browser

import (
	"runtime"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/zine-verify/internal/config"
)

// flagValue returns the last value set for name, mirroring how the exec
// allocator resolves repeated flags.
func flagValue(flags []flag, name string) (interface{}, bool) {
	var (
		value interface{}
		found bool
	)
	for _, f := range flags {
		if f.name == name {
			value, found = f.value, true
		}
	}
	return value, found
}

func TestAllocatorFlags(t *testing.T) {
	t.Run("Headless", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{Headless: true}, "darwin")
		v, ok := flagValue(flags, "headless")
		assert.True(t, ok)
		assert.Equal(t, true, v)
		_, ok = flagValue(flags, "disable-gpu")
		assert.True(t, ok)
	})

	t.Run("HeadlessDisabled", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{Headless: false}, "darwin")
		v, ok := flagValue(flags, "headless")
		assert.True(t, ok, "headless must be set explicitly to override chromedp defaults")
		assert.Equal(t, false, v)
		_, ok = flagValue(flags, "disable-gpu")
		assert.False(t, ok)
	})

	t.Run("CacheDisabled", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{DisableCache: true}, "darwin")
		v, _ := flagValue(flags, "disk-cache-size")
		assert.Equal(t, "0", v)
		v, _ = flagValue(flags, "media-cache-size")
		assert.Equal(t, "0", v)
		_, ok := flagValue(flags, "disable-cache")
		assert.True(t, ok)
	})

	t.Run("IgnoreTLSErrors", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{IgnoreTLSErrors: true}, "darwin")
		_, ok := flagValue(flags, "ignore-certificate-errors")
		assert.True(t, ok)
		_, ok = flagValue(flags, "allow-insecure-localhost")
		assert.True(t, ok)
	})

	t.Run("LinuxContainerFlags", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{}, "linux")
		_, ok := flagValue(flags, "no-sandbox")
		assert.True(t, ok)
		_, ok = flagValue(flags, "disable-dev-shm-usage")
		assert.True(t, ok)

		flags = allocatorFlags(config.BrowserConfig{}, "windows")
		_, ok = flagValue(flags, "no-sandbox")
		assert.False(t, ok)
	})

	t.Run("WithCustomArgs", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{
			Args: []string{"--custom-arg1", "--lang=de-DE", "", "--"},
		}, "darwin")
		v, ok := flagValue(flags, "custom-arg1")
		assert.True(t, ok)
		assert.Equal(t, true, v)
		v, _ = flagValue(flags, "lang")
		assert.Equal(t, "de-DE", v)
		_, ok = flagValue(flags, "")
		assert.False(t, ok, "empty args are skipped")
	})

	t.Run("CustomArgsOverrideHeadless", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{Headless: true, Args: []string{"--headless=new"}}, "darwin")
		v, _ := flagValue(flags, "headless")
		assert.Equal(t, "new", v)
	})
}

func TestViewportSize(t *testing.T) {
	w, h := viewportSize(map[string]int{"width": 1920, "height": 1080})
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)

	w, h = viewportSize(nil)
	assert.Equal(t, defaultViewportWidth, w)
	assert.Equal(t, defaultViewportHeight, h)

	w, h = viewportSize(map[string]int{"width": -5})
	assert.Equal(t, defaultViewportWidth, w)
	assert.Equal(t, defaultViewportHeight, h)
}

func TestDefaultAllocatorOptions(t *testing.T) {
	cfg := config.BrowserConfig{Headless: true, ExecPath: "/opt/chrome/chrome", Args: []string{"--a", "--b"}}
	opts := DefaultAllocatorOptions(cfg)

	flags := allocatorFlags(cfg, runtime.GOOS)
	// chromedp defaults, window size, exec path, then one option per flag.
	assert.Len(t, opts, len(chromedp.DefaultExecAllocatorOptions)+2+len(flags))
}
