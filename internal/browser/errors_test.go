// internal/browser/errors_test.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedErrors(t *testing.T) {
	cause := context.DeadlineExceeded

	t.Run("NavigationError", func(t *testing.T) {
		err := fmt.Errorf("scenario load: %w", &NavigationError{URL: "http://localhost:8000", Timeout: 30 * time.Second, Err: cause})

		var navErr *NavigationError
		require.True(t, errors.As(err, &navErr))
		assert.Equal(t, "http://localhost:8000", navErr.URL)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), "navigation to http://localhost:8000 failed")
	})

	t.Run("ElementNotFoundError", func(t *testing.T) {
		err := error(&ElementNotFoundError{Selector: "#pdf-upload", Timeout: 10 * time.Second, Err: cause})

		var notFound *ElementNotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "#pdf-upload", notFound.Selector)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, "element not found matching selector '#pdf-upload' within 10s", err.Error())
	})

	t.Run("TimeoutError", func(t *testing.T) {
		err := error(&TimeoutError{Selector: "#progress-container", State: "hidden", Timeout: 20 * time.Second, Err: cause})

		var timeout *TimeoutError
		require.True(t, errors.As(err, &timeout))
		assert.Equal(t, "hidden", timeout.State)
		assert.Equal(t, "timed out after 20s waiting for '#progress-container' to be hidden", err.Error())

		var notFound *ElementNotFoundError
		assert.False(t, errors.As(err, &notFound))
	})
}
