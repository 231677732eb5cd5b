package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pmdesk/internal/domain"
	"pmdesk/internal/filter"
)

// Views remembers, per entity, the query string of the list last shown
// so that mutations in a later invocation patch that list.
type Views struct {
	path string

	mu        sync.Mutex
	locations map[string]*filter.Location
	dirty     bool
}

// LoadViews reads the view file at path. A missing file yields no views.
func LoadViews(path string) (*Views, error) {
	v := &Views{path: path, locations: map[string]*filter.Location{}}
	if path == "" {
		return v, nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read view file: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse view file: %w", err)
	}
	for entity, query := range raw {
		loc, err := filter.NewLocation(query)
		if err != nil {
			return nil, fmt.Errorf("view of %s: %w", entity, err)
		}
		v.locations[entity] = loc
	}
	return v, nil
}

// Filter is the list filter last synced for entity, or the default view.
func (v *Views) Filter(entity string) domain.Filter {
	v.mu.Lock()
	loc, ok := v.locations[entity]
	v.mu.Unlock()
	if !ok {
		return domain.DefaultFilter()
	}
	return loc.Filter()
}

// Sync records f as the view of entity and reports whether it changed.
func (v *Views) Sync(entity string, f domain.Filter) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	loc, ok := v.locations[entity]
	if !ok {
		loc, _ = filter.NewLocation("")
		v.locations[entity] = loc
	}
	if !loc.Sync(f) {
		return false
	}
	v.dirty = true
	return true
}

// Save writes the views when any changed since the last load or save.
func (v *Views) Save() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.dirty || v.path == "" {
		return nil
	}
	raw := make(map[string]string, len(v.locations))
	for entity, loc := range v.locations {
		raw[entity] = loc.String()
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(v.path), 0o700); err != nil {
		return fmt.Errorf("failed to create view dir: %w", err)
	}
	if err := os.WriteFile(v.path, b, 0o600); err != nil {
		return fmt.Errorf("failed to write view file: %w", err)
	}
	v.dirty = false
	return nil
}
