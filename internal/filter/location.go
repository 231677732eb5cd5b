package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"pmdesk/internal/domain"
)

// Location mirrors the active filter into a query string. Sync only
// writes parameters whose value changed, so repeated syncs of the same
// filter are no-ops.
type Location struct {
	mu     sync.Mutex
	values url.Values
	writes int
}

func NewLocation(rawQuery string) (*Location, error) {
	v, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid query string: %w", err)
	}
	return &Location{values: v}, nil
}

// Sync applies f and reports whether anything was written. searchTerm is
// removed when empty; other fields are only ever set, never cleared.
func (l *Location) Sync(f domain.Filter) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	changed := false
	set := func(name, value string) {
		if cur, ok := l.values[name]; ok && len(cur) == 1 && cur[0] == value {
			return
		}
		l.values.Set(name, value)
		changed = true
	}

	if f.SearchTerm != nil && *f.SearchTerm != "" {
		set("searchTerm", *f.SearchTerm)
	} else if _, ok := l.values["searchTerm"]; ok {
		l.values.Del("searchTerm")
		changed = true
	}
	if f.Page != nil {
		set("page", strconv.Itoa(*f.Page))
	}
	if f.PageSize != nil {
		set("pageSize", strconv.Itoa(*f.PageSize))
	}
	if f.SortColumn != nil && *f.SortColumn != "" {
		set("sortColumn", *f.SortColumn)
	}
	if f.SortOrder != nil && *f.SortOrder != "" {
		set("sortOrder", *f.SortOrder)
	}

	if changed {
		l.writes++
	}
	return changed
}

// Filter is the view the current query string reproduces.
func (l *Location) Filter() domain.Filter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Parse(l.values)
}

func (l *Location) Values() url.Values {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(url.Values, len(l.values))
	for k, v := range l.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (l *Location) String() string {
	return l.Values().Encode()
}

// Writes counts the syncs that changed the query string.
func (l *Location) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}
