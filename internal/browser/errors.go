// internal/browser/errors.go
package browser

import (
	"fmt"
	"time"
)

// Typed errors let the runner classify failures with errors.As instead of
// matching CDP error strings.

// NavigationError represents a failure to load the target URL.
type NavigationError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed (timeout %s): %v", e.URL, e.Timeout, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ElementNotFoundError is returned when an action selector never resolves.
type ElementNotFoundError struct {
	Selector string
	Timeout  time.Duration
	Err      error
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element not found matching selector '%s' within %s", e.Selector, e.Timeout)
}

func (e *ElementNotFoundError) Unwrap() error { return e.Err }

// TimeoutError is returned when a wait condition is not met in its budget.
type TimeoutError struct {
	Selector string
	State    string
	Timeout  time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for '%s' to be %s", e.Timeout, e.Selector, e.State)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
