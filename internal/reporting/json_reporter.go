// internal/reporting/json_reporter.go
package reporting

import (
	"fmt"
	"io"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/zine-verify/internal/observability"
	"github.com/xkilldash9x/zine-verify/internal/runner"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Report is the document written by JSONReporter.
type Report struct {
	Tool        string      `json:"tool"`
	Version     string      `json:"version"`
	GeneratedAt time.Time   `json:"generated_at"`
	Summary     Summary     `json:"summary"`
	Runs        []RunRecord `json:"runs"`
}

// JSONReporter buffers run records and writes a single JSON document on
// Close. It is safe for concurrent use.
type JSONReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	report Report
}

// NewJSONReporter creates a reporter that takes ownership of writer.
func NewJSONReporter(writer io.WriteCloser, toolVersion string) *JSONReporter {
	return &JSONReporter{
		writer: writer,
		logger: observability.GetLogger().Named("json_reporter"),
		now:    time.Now,
		report: Report{
			Tool:    ToolName,
			Version: toolVersion,
			Runs:    []RunRecord{},
		},
	}
}

// Write appends the result to the report.
func (r *JSONReporter) Write(result *runner.Result) error {
	if result == nil {
		return fmt.Errorf("cannot write a nil result")
	}
	rec := NewRunRecord(result)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Runs = append(r.report.Runs, rec)
	r.report.Summary.add(rec)
	return nil
}

// Close encodes the report and closes the writer.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.report.GeneratedAt = r.now().UTC()

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	encodeErr := encoder.Encode(r.report)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode run report", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode run report: %w", encodeErr)
	}
	if closeErr != nil {
		r.logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.logger.Debug("Wrote run report",
		zap.Int("runs", r.report.Summary.Total),
		zap.Int("failed", r.report.Summary.Failed),
	)
	return nil
}
