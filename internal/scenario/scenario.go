// internal/scenario/scenario.go
package scenario

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// State is the condition a wait expects an element to reach.
type State string

const (
	StateVisible  State = "visible"
	StateHidden   State = "hidden"
	StateAttached State = "attached"
	StateDetached State = "detached"
)

// Valid reports whether s is one of the known wait states.
func (s State) Valid() bool {
	switch s {
	case StateVisible, StateHidden, StateAttached, StateDetached:
		return true
	}
	return false
}

// Scenario describes one scripted journey through the app.
type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	URL         string          `yaml:"url,omitempty"`
	Upload      *Upload         `yaml:"upload,omitempty"`
	Waits       []WaitCondition `yaml:"waits,omitempty"`
	// Settle is slept after all waits succeed, before any interaction.
	Settle      time.Duration `yaml:"settle,omitempty"`
	Interaction *Interaction  `yaml:"interaction,omitempty"`
	Assertion   *Assertion    `yaml:"assertion,omitempty"`
	Screenshot  string        `yaml:"screenshot"`
}

// Upload sets a fixture file on a file input.
type Upload struct {
	Selector string `yaml:"selector"`
	Fixture  string `yaml:"fixture"`
}

// WaitCondition blocks until Selector reaches State or Timeout elapses.
// Text is only meaningful for StateVisible.
type WaitCondition struct {
	Selector string        `yaml:"selector"`
	State    State         `yaml:"state"`
	Text     string        `yaml:"text,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
}

func (w WaitCondition) String() string {
	if w.Text != "" {
		return fmt.Sprintf("%s %s with text %q (%s)", w.Selector, w.State, w.Text, w.Timeout)
	}
	return fmt.Sprintf("%s %s (%s)", w.Selector, w.State, w.Timeout)
}

// Interaction types into an input like a user would.
type Interaction struct {
	Selector string        `yaml:"selector"`
	Click    bool          `yaml:"click,omitempty"`
	Clear    bool          `yaml:"clear,omitempty"`
	Text     string        `yaml:"text"`
	KeyDelay time.Duration `yaml:"key_delay,omitempty"`
	Settle   time.Duration `yaml:"settle,omitempty"`
}

// Assertion checks that an element's text content contains Contains.
type Assertion struct {
	Selector string `yaml:"selector"`
	Contains string `yaml:"contains"`
}

// Validate checks a scenario for missing or contradictory fields and returns
// every problem found.
func (s Scenario) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if s.URL == "" {
		errs = append(errs, errors.New("url is required"))
	} else if u, err := url.Parse(s.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("url %q is not an absolute URL", s.URL))
	}

	if s.Upload != nil {
		if s.Upload.Selector == "" {
			errs = append(errs, errors.New("upload.selector is required"))
		}
		if s.Upload.Fixture == "" {
			errs = append(errs, errors.New("upload.fixture is required"))
		}
	}

	for i, w := range s.Waits {
		if w.Selector == "" {
			errs = append(errs, fmt.Errorf("waits[%d].selector is required", i))
		}
		if !w.State.Valid() {
			errs = append(errs, fmt.Errorf("waits[%d].state %q is not one of visible, hidden, attached, detached", i, w.State))
		}
		if w.Text != "" && w.State != StateVisible {
			errs = append(errs, fmt.Errorf("waits[%d].text is only supported with state visible", i))
		}
		if w.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("waits[%d].timeout must be positive", i))
		}
	}

	if s.Settle < 0 {
		errs = append(errs, errors.New("settle must not be negative"))
	}

	if in := s.Interaction; in != nil {
		if in.Selector == "" {
			errs = append(errs, errors.New("interaction.selector is required"))
		}
		if in.Text == "" && !in.Clear && !in.Click {
			errs = append(errs, errors.New("interaction does nothing: set text, clear or click"))
		}
		if in.KeyDelay < 0 || in.Settle < 0 {
			errs = append(errs, errors.New("interaction delays must not be negative"))
		}
	}

	if a := s.Assertion; a != nil {
		if a.Selector == "" {
			errs = append(errs, errors.New("assertion.selector is required"))
		}
		if a.Contains == "" {
			errs = append(errs, errors.New("assertion.contains is required"))
		}
	}

	if s.Screenshot == "" {
		errs = append(errs, errors.New("screenshot is required"))
	} else if !strings.EqualFold(filepath.Ext(s.Screenshot), ".png") {
		errs = append(errs, fmt.Errorf("screenshot %q must be a .png file", s.Screenshot))
	}

	if len(errs) > 0 {
		name := s.Name
		if name == "" {
			name = "<unnamed>"
		}
		return fmt.Errorf("scenario %s is invalid: %w", name, errors.Join(errs...))
	}
	return nil
}
