// internal/runner/result.go
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/zine-verify/internal/browser"
)

// State is a step of a single run.
type State string

const (
	StateIdle              State = "Idle"
	StateLaunched          State = "Launched"
	StateNavigated         State = "Navigated"
	StateUploaded          State = "Uploaded"
	StateWaitingConditions State = "WaitingConditions"
	StateInteracting       State = "Interacting"
	StateAsserting         State = "Asserting"
	StateCaptured          State = "Captured"
	StateFailed            State = "Failed"
	StateCapturedFallback  State = "Captured(fallback)"
	StateClosed            State = "Closed"
)

// Failure kinds reported by Classify.
const (
	KindNavigation      = "navigation"
	KindElementNotFound = "element_not_found"
	KindTimeout         = "timeout"
	KindInterrupted     = "interrupted"
	KindLaunch          = "launch"
	KindOther           = "other"
)

// AssertionMismatch records a content check that did not hold. It is never
// fatal to the run.
type AssertionMismatch struct {
	Selector string `json:"selector"`
	Expected string `json:"expected"`
	Found    string `json:"found"`
}

func (m AssertionMismatch) Error() string {
	return fmt.Sprintf("text of '%s' does not contain %q (found %q)", m.Selector, m.Expected, m.Found)
}

// Result is the outcome of running one scenario.
type Result struct {
	RunID              string
	Scenario           string
	States             []State
	Screenshot         string
	FallbackScreenshot string
	Err                error
	FailureKind        string
	Mismatches         []AssertionMismatch
	StartedAt          time.Time
	Duration           time.Duration
}

// Passed reports whether the journey completed without an error. Assertion
// mismatches do not affect it.
func (r *Result) Passed() bool { return r.Err == nil }

// Clean reports whether the run passed with no assertion mismatches.
func (r *Result) Clean() bool { return r.Passed() && len(r.Mismatches) == 0 }

// FinalState returns the last visited state.
func (r *Result) FinalState() State {
	if len(r.States) == 0 {
		return StateIdle
	}
	return r.States[len(r.States)-1]
}

func (r *Result) visit(s State) { r.States = append(r.States, s) }

// launchError marks a failure to acquire a page.
type launchError struct{ err error }

func (e *launchError) Error() string { return "failed to launch browser session: " + e.err.Error() }
func (e *launchError) Unwrap() error { return e.err }

// Classify maps a run error to a failure kind.
func Classify(err error) string {
	var (
		navErr     *browser.NavigationError
		notFound   *browser.ElementNotFoundError
		timeoutErr *browser.TimeoutError
		launchErr  *launchError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &launchErr):
		return KindLaunch
	case errors.As(err, &navErr):
		return KindNavigation
	case errors.As(err, &notFound):
		return KindElementNotFound
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindInterrupted
	default:
		return KindOther
	}
}
