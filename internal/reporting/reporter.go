// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xkilldash9x/zine-verify/internal/runner"
)

// ToolName identifies the producer of a report.
const ToolName = "zine-verify"

// Reporter defines the interface for writing run results to an output.
type Reporter interface {
	// Write records the outcome of a single scenario run.
	Write(result *runner.Result) error
	// Close finalizes the report and closes any underlying resources.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path.
// An empty path or "stdout" writes to standard output.
func New(format, outputPath, toolVersion string) (Reporter, error) {
	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if isStdOut {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	switch format {
	case "json":
		return NewJSONReporter(writer, toolVersion), nil
	case "text":
		return NewTextReporter(writer), nil
	case "junit":
		return NewJUnitReporter(writer), nil
	default:
		if !isStdOut {
			writer.Close()
		}
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// RunRecord is the serialized form of a runner.Result.
type RunRecord struct {
	RunID              string                     `json:"run_id"`
	Scenario           string                     `json:"scenario"`
	Passed             bool                       `json:"passed"`
	FailureKind        string                     `json:"failure_kind,omitempty"`
	Error              string                     `json:"error,omitempty"`
	States             []string                   `json:"states"`
	Screenshot         string                     `json:"screenshot,omitempty"`
	FallbackScreenshot string                     `json:"fallback_screenshot,omitempty"`
	Mismatches         []runner.AssertionMismatch `json:"assertion_mismatches,omitempty"`
	StartedAt          time.Time                  `json:"started_at"`
	DurationMS         int64                      `json:"duration_ms"`
}

// NewRunRecord flattens a result for serialization.
func NewRunRecord(res *runner.Result) RunRecord {
	rec := RunRecord{
		RunID:              res.RunID,
		Scenario:           res.Scenario,
		Passed:             res.Passed(),
		FailureKind:        res.FailureKind,
		States:             make([]string, 0, len(res.States)),
		Screenshot:         res.Screenshot,
		FallbackScreenshot: res.FallbackScreenshot,
		Mismatches:         res.Mismatches,
		StartedAt:          res.StartedAt.UTC(),
		DurationMS:         res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	for _, s := range res.States {
		rec.States = append(rec.States, string(s))
	}
	return rec
}

// Summary counts outcomes across a report.
type Summary struct {
	Total          int `json:"total"`
	Passed         int `json:"passed"`
	Failed         int `json:"failed"`
	WithMismatches int `json:"with_mismatches"`
}

func (s *Summary) add(rec RunRecord) {
	s.Total++
	if rec.Passed {
		s.Passed++
	} else {
		s.Failed++
	}
	if len(rec.Mismatches) > 0 {
		s.WithMismatches++
	}
}
