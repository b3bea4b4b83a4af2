// internal/scenario/catalog.go
package scenario

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownScenario is returned by Lookup for names not in the catalog.
var ErrUnknownScenario = errors.New("unknown scenario")

// Catalog is an ordered, name-indexed set of scenarios.
type Catalog struct {
	order  []string
	byName map[string]Scenario
}

// NewCatalog builds a catalog, rejecting invalid or duplicate scenarios.
func NewCatalog(scenarios ...Scenario) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Scenario, len(scenarios))}
	for _, s := range scenarios {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.byName[s.Name]; exists {
			return nil, fmt.Errorf("duplicate scenario name %q", s.Name)
		}
		c.order = append(c.order, s.Name)
		c.byName[s.Name] = s
	}
	return c, nil
}

// Merge returns a new catalog where overrides replace scenarios of the same
// name in place and new names are appended in their given order.
func (c *Catalog) Merge(overrides ...Scenario) (*Catalog, error) {
	merged := &Catalog{
		order:  append([]string(nil), c.order...),
		byName: make(map[string]Scenario, len(c.byName)+len(overrides)),
	}
	for name, s := range c.byName {
		merged.byName[name] = s
	}

	seen := make(map[string]bool, len(overrides))
	for _, s := range overrides {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate scenario name %q", s.Name)
		}
		seen[s.Name] = true
		if _, exists := merged.byName[s.Name]; !exists {
			merged.order = append(merged.order, s.Name)
		}
		merged.byName[s.Name] = s
	}
	return merged, nil
}

// Lookup returns the scenario registered under name.
func (c *Catalog) Lookup(name string) (Scenario, error) {
	s, ok := c.byName[name]
	if !ok {
		known := append([]string(nil), c.order...)
		sort.Strings(known)
		return Scenario{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownScenario, name, known)
	}
	return s, nil
}

// Names returns scenario names in catalog order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// All returns every scenario in catalog order.
func (c *Catalog) All() []Scenario {
	out := make([]Scenario, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Select resolves names to scenarios, preserving the requested order. An
// empty list selects everything.
func (c *Catalog) Select(names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return c.All(), nil
	}
	out := make([]Scenario, 0, len(names))
	for _, name := range names {
		s, err := c.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
