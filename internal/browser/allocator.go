// internal/browser/allocator.go
package browser

import (
	"runtime"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/zine-verify/internal/config"
)

const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
)

// flag is a single command line switch passed to the browser process.
type flag struct {
	name  string
	value interface{}
}

// DefaultAllocatorOptions assembles the exec allocator options for one
// browser process from the browser configuration.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+16)
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)

	width, height := viewportSize(cfg.Viewport)
	opts = append(opts, chromedp.WindowSize(width, height))

	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	for _, f := range allocatorFlags(cfg, runtime.GOOS) {
		opts = append(opts, chromedp.Flag(f.name, f.value))
	}
	return opts
}

// allocatorFlags lists the switches layered over chromedp's defaults. Later
// entries win, so user supplied args can override anything above them.
func allocatorFlags(cfg config.BrowserConfig, goos string) []flag {
	// The defaults include headless; set it explicitly so a headed run works.
	flags := []flag{{"headless", cfg.Headless}}
	if cfg.Headless {
		flags = append(flags, flag{"disable-gpu", true})
	}

	if cfg.DisableCache {
		flags = append(flags,
			flag{"disk-cache-size", "0"},
			flag{"media-cache-size", "0"},
			flag{"disable-cache", true},
		)
	}

	if cfg.IgnoreTLSErrors {
		flags = append(flags,
			flag{"ignore-certificate-errors", true},
			flag{"allow-insecure-localhost", true},
		)
	}

	// Containers on Linux usually lack a usable sandbox and a large /dev/shm.
	if goos == "linux" {
		flags = append(flags,
			flag{"no-sandbox", true},
			flag{"disable-dev-shm-usage", true},
			flag{"disable-setuid-sandbox", true},
		)
	}

	for _, arg := range cfg.Args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			flags = append(flags, flag{name, value})
		} else {
			flags = append(flags, flag{name, true})
		}
	}
	return flags
}

func viewportSize(viewport map[string]int) (int, int) {
	width, height := viewport["width"], viewport["height"]
	if width <= 0 {
		width = defaultViewportWidth
	}
	if height <= 0 {
		height = defaultViewportHeight
	}
	return width, height
}
