package filter

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/go-querystring/query"

	"pmdesk/internal/domain"
)

// Values encodes f as request query parameters. Absent and empty fields
// are left out.
func Values(f domain.Filter) (url.Values, error) {
	v, err := query.Values(f.Normalized())
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter: %w", err)
	}
	return v, nil
}

// Parse reads a filter back from query parameters. Missing or malformed
// numbers stay nil.
func Parse(v url.Values) domain.Filter {
	var f domain.Filter
	if s := v.Get("searchTerm"); s != "" {
		f.SearchTerm = domain.String(s)
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil {
		f.Page = domain.Int(n)
	}
	if n, err := strconv.Atoi(v.Get("pageSize")); err == nil {
		f.PageSize = domain.Int(n)
	}
	if s := v.Get("sortColumn"); s != "" {
		f.SortColumn = domain.String(s)
	}
	if s := v.Get("sortOrder"); s != "" {
		f.SortOrder = domain.String(s)
	}
	return f
}
