// internal/reporting/text_reporter.go
package reporting

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/xkilldash9x/zine-verify/internal/runner"
)

// TextReporter prints a human readable summary table on Close.
type TextReporter struct {
	writer io.WriteCloser

	mu      sync.Mutex
	records []RunRecord
	summary Summary
}

// NewTextReporter creates a reporter that takes ownership of writer.
func NewTextReporter(writer io.WriteCloser) *TextReporter {
	return &TextReporter{writer: writer}
}

func (r *TextReporter) Write(result *runner.Result) error {
	if result == nil {
		return fmt.Errorf("cannot write a nil result")
	}
	rec := NewRunRecord(result)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	r.summary.add(rec)
	return nil
}

func (r *TextReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tw := tabwriter.NewWriter(r.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tRESULT\tDURATION\tARTIFACT\tDETAIL")
	for _, rec := range r.records {
		result, artifact, detail := "PASS", rec.Screenshot, ""
		switch {
		case !rec.Passed:
			result, artifact, detail = "FAIL", rec.FallbackScreenshot, rec.Error
		case len(rec.Mismatches) > 0:
			result = "MISMATCH"
			detail = fmt.Sprintf("expected %q, found %q", rec.Mismatches[0].Expected, rec.Mismatches[0].Found)
		}
		if artifact == "" {
			artifact = "-"
		}
		duration := (time.Duration(rec.DurationMS) * time.Millisecond).String()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", rec.Scenario, result, duration, artifact, detail)
	}
	fmt.Fprintf(tw, "\n%d run(s): %d passed, %d failed, %d with mismatches\n",
		r.summary.Total, r.summary.Passed, r.summary.Failed, r.summary.WithMismatches)

	flushErr := tw.Flush()
	closeErr := r.writer.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to write summary: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}
