// internal/scenario/builtin.go
package scenario

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xkilldash9x/zine-verify/internal/config"
)

const (
	BlankPage = "blank-page"
	Debounce  = "debounce"
	Load      = "load"

	uploadSelector   = "#pdf-upload"
	progressSelector = "#progress-container"
	gridRowsSelector = "#grid-rows"

	// debounceRows is typed into the grid rows input.
	debounceRows = 10
	// blankPageSettle gives page thumbnails time to render before capture.
	blankPageSettle = 2 * time.Second
)

// Fixture file names expected in the fixtures directory.
const (
	VerifyFixture      = "test-verify.pdf"
	SixteenPageFixture = "test-16-pages.pdf"
)

// Defaults carries the configuration values built-in scenarios are derived from.
type Defaults struct {
	URL         string
	OutputDir   string
	FixturesDir string
	TypeDelay   time.Duration
	SettleDelay time.Duration
	GridColumns int
}

// DefaultsFromConfig extracts scenario defaults from the loaded configuration.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	return Defaults{
		URL:         cfg.Target.URL,
		OutputDir:   cfg.Verification.OutputDir,
		FixturesDir: cfg.Verification.FixturesDir,
		TypeDelay:   cfg.Verification.TypeDelay,
		SettleDelay: cfg.Verification.SettleDelay,
		GridColumns: cfg.Verification.DefaultGridColumns,
	}
}

// Builtins returns the three built-in scenarios in their canonical order.
func Builtins(d Defaults) []Scenario {
	return []Scenario{
		{
			Name:        BlankPage,
			Description: "Upload a one page PDF and capture the rendered preview once processing completes.",
			URL:         d.URL,
			Upload:      &Upload{Selector: uploadSelector, Fixture: filepath.Join(d.FixturesDir, VerifyFixture)},
			Waits: []WaitCondition{
				{Selector: progressSelector, State: StateHidden, Timeout: 20 * time.Second},
				{Selector: ".toast-success", State: StateVisible, Timeout: 10 * time.Second},
			},
			Settle:     blankPageSettle,
			Screenshot: filepath.Join(d.OutputDir, "blank_page_verification.png"),
		},
		{
			Name:        Debounce,
			Description: "Upload a 16 page PDF, retype the grid rows and check the debounced page total.",
			URL:         d.URL,
			Upload:      &Upload{Selector: uploadSelector, Fixture: filepath.Join(d.FixturesDir, SixteenPageFixture)},
			Waits: []WaitCondition{
				{Selector: gridRowsSelector, State: StateVisible, Timeout: 60 * time.Second},
				{Selector: progressSelector, State: StateHidden, Timeout: 30 * time.Second},
			},
			Interaction: &Interaction{
				Selector: gridRowsSelector,
				Click:    true,
				Clear:    true,
				Text:     strconv.Itoa(debounceRows),
				KeyDelay: d.TypeDelay,
				Settle:   d.SettleDelay,
			},
			Assertion: &Assertion{
				Selector: "#grid-total",
				Contains: ExpectedGridTotal(debounceRows, d.GridColumns),
			},
			Screenshot: filepath.Join(d.OutputDir, "grid_debounce_check.png"),
		},
		{
			Name:        Load,
			Description: "Load the app and wait for the title to render.",
			URL:         d.URL,
			Waits: []WaitCondition{
				{Selector: "h1", State: StateVisible, Text: "Zine-ify", Timeout: 10 * time.Second},
			},
			Settle:     d.SettleDelay,
			Screenshot: filepath.Join(d.OutputDir, "app_loaded.png"),
		},
	}
}

// ExpectedGridTotal is the page count label the app shows for a rows by
// columns grid.
func ExpectedGridTotal(rows, columns int) string {
	return fmt.Sprintf("%d pages", rows*columns)
}
