package checks

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry = make(map[string]Check)
	mu       sync.RWMutex
)

// Register adds c to the global registry. Built-in checks call it from init.
func Register(c Check) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[c.ID()]; exists {
		panic(fmt.Sprintf("check %s already registered", c.ID()))
	}
	registry[c.ID()] = &IgnoreWrapper{Check: c}
}

// List returns every registered check sorted by ID.
func List() []Check {
	mu.RLock()
	defer mu.RUnlock()
	return listLocked()
}

func listLocked() []Check {
	out := make([]Check, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID() < out[j].ID()
	})
	return out
}

func Lookup(id string) (Check, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := registry[strings.TrimSpace(id)]
	return c, ok
}

// Resolve selects checks by a comma-separated list of IDs. An empty selector
// selects all of them.
func Resolve(selector string) ([]Check, error) {
	mu.RLock()
	defer mu.RUnlock()

	if strings.TrimSpace(selector) == "" {
		return listLocked(), nil
	}

	var selected []Check
	seen := make(map[string]bool)
	for _, id := range strings.Split(selector, ",") {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		c, ok := registry[id]
		if !ok {
			return nil, fmt.Errorf("check not found: %s", id)
		}
		seen[id] = true
		selected = append(selected, c)
	}
	return selected, nil
}

// Configure applies per-check options (check ID -> option -> value) to the
// selected checks. Options for checks outside the selection are an error, as
// are unknown option names.
func Configure(selected []Check, opts map[string]map[string]string) error {
	byID := make(map[string]Check, len(selected))
	for _, c := range selected {
		byID[c.ID()] = c
	}
	ids := make([]string, 0, len(opts))
	for id := range opts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return fmt.Errorf("--set references check %q which is not selected", id)
		}
		cc, ok := c.(ConfigurableCheck)
		if !ok {
			return fmt.Errorf("check %q accepts no options", id)
		}
		known := make(map[string]bool)
		for _, o := range cc.Options() {
			known[o.Name] = true
		}
		for name := range opts[id] {
			if !known[name] {
				return fmt.Errorf("check %q has no option %q", id, name)
			}
		}
		if err := cc.Configure(opts[id]); err != nil {
			return fmt.Errorf("configure %s: %w", id, err)
		}
	}
	return nil
}
