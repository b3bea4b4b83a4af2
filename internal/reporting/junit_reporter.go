// internal/reporting/junit_reporter.go
package reporting

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/zine-verify/internal/runner"
)

// JUnitReporter renders runs as a JUnit XML document so CI systems can show
// scenarios as test cases. Failed runs become <failure> elements; assertion
// mismatches are reported in <system-out> and do not fail the case.
type JUnitReporter struct {
	writer io.WriteCloser
	now    func() time.Time

	mu      sync.Mutex
	records []RunRecord
	summary Summary
}

// NewJUnitReporter creates a reporter that takes ownership of writer.
func NewJUnitReporter(writer io.WriteCloser) *JUnitReporter {
	return &JUnitReporter{writer: writer, now: time.Now}
}

func (r *JUnitReporter) Write(result *runner.Result) error {
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

func (r *JUnitReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.document()
	_, writeErr := doc.WriteTo(r.writer)
	closeErr := r.writer.Close()
	if writeErr != nil {
		return fmt.Errorf("failed to write junit report: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}

func (r *JUnitReporter) document() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	var total time.Duration
	for _, rec := range r.records {
		total += time.Duration(rec.DurationMS) * time.Millisecond
	}

	suites := doc.CreateElement("testsuites")
	suite := suites.CreateElement("testsuite")
	suite.CreateAttr("name", ToolName)
	suite.CreateAttr("tests", strconv.Itoa(r.summary.Total))
	suite.CreateAttr("failures", strconv.Itoa(r.summary.Failed))
	suite.CreateAttr("errors", "0")
	suite.CreateAttr("time", seconds(total))
	suite.CreateAttr("timestamp", r.now().UTC().Format(time.RFC3339))

	for _, rec := range r.records {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("classname", ToolName)
		tc.CreateAttr("name", rec.Scenario)
		tc.CreateAttr("time", seconds(time.Duration(rec.DurationMS)*time.Millisecond))

		if !rec.Passed {
			failure := tc.CreateElement("failure")
			failure.CreateAttr("type", rec.FailureKind)
			failure.CreateAttr("message", rec.Error)
			if rec.FallbackScreenshot != "" {
				failure.SetText("fallback screenshot: " + rec.FallbackScreenshot)
			}
		}

		var out string
		if rec.Screenshot != "" {
			out += "screenshot: " + rec.Screenshot + "\n"
		}
		for _, m := range rec.Mismatches {
			out += fmt.Sprintf("assertion mismatch on %s: expected %q, found %q\n", m.Selector, m.Expected, m.Found)
		}
		if out != "" {
			tc.CreateElement("system-out").SetText(out)
		}
	}

	doc.Indent(2)
	return doc
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
