package domain

import "strconv"

// Link is a hypermedia action descriptor attached to records and pages.
// It is advisory only; the client never enforces it.
type Link struct {
	Method    string `json:"method,omitempty"`
	URL       string `json:"url,omitempty"`
	Operation string `json:"operation,omitempty"`
}

// Page is the list envelope returned by every find endpoint.
type Page[T any] struct {
	Items           []T    `json:"items"`
	Page            int    `json:"page"`
	PageSize        int    `json:"pageSize"`
	TotalCount      int    `json:"totalCount"`
	TotalPages      int    `json:"totalPages"`
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	Links           []Link `json:"links"`
}

// EmptyPage is the page callers see before the first successful list fetch.
func EmptyPage[T any]() Page[T] {
	return Page[T]{
		Items:      []T{},
		Page:       1,
		PageSize:   10,
		TotalCount: 0,
		TotalPages: 1,
		Links:      []Link{},
	}
}

// SingleItemPage wraps one record when there was no cached page to extend.
func SingleItemPage[T any](item T) Page[T] {
	return Page[T]{
		Items:      []T{item},
		Page:       1,
		PageSize:   10,
		TotalCount: 1,
		TotalPages: 1,
		Links:      []Link{},
	}
}

// WithItems returns a copy of p holding items. Metadata is preserved.
func (p Page[T]) WithItems(items []T) Page[T] {
	p.Items = items
	return p
}

// Filter narrows a list request. Nil fields mean "use the server default".
type Filter struct {
	SearchTerm *string `json:"searchTerm,omitempty" url:"searchTerm,omitempty"`
	Page       *int    `json:"page,omitempty" url:"page,omitempty"`
	PageSize   *int    `json:"pageSize,omitempty" url:"pageSize,omitempty"`
	SortColumn *string `json:"sortColumn,omitempty" url:"sortColumn,omitempty"`
	SortOrder  *string `json:"sortOrder,omitempty" url:"sortOrder,omitempty"`
}

// DefaultFilter is the view every list screen starts from.
func DefaultFilter() Filter {
	return Filter{
		SearchTerm: String(""),
		Page:       Int(1),
		PageSize:   Int(10),
		SortColumn: String("name"),
		SortOrder:  String("asc"),
	}
}

// Normalized drops empty strings so that they are treated as absent.
func (f Filter) Normalized() Filter {
	if f.SearchTerm != nil && *f.SearchTerm == "" {
		f.SearchTerm = nil
	}
	if f.SortColumn != nil && *f.SortColumn == "" {
		f.SortColumn = nil
	}
	if f.SortOrder != nil && *f.SortOrder == "" {
		f.SortOrder = nil
	}
	return f
}

// Fields returns the filter values in key order, absent fields as "".
func (f Filter) Fields() (searchTerm, page, pageSize, sortColumn, sortOrder string) {
	if f.SearchTerm != nil {
		searchTerm = *f.SearchTerm
	}
	if f.Page != nil {
		page = strconv.Itoa(*f.Page)
	}
	if f.PageSize != nil {
		pageSize = strconv.Itoa(*f.PageSize)
	}
	if f.SortColumn != nil {
		sortColumn = *f.SortColumn
	}
	if f.SortOrder != nil {
		sortOrder = *f.SortOrder
	}
	return
}

func String(s string) *string { return &s }

func Int(i int) *int { return &i }

// IDRef identifies the record a request targets.
type IDRef struct {
	ID string `json:"id"`
}

type FindOneRequest struct {
	DataID IDRef `json:"dataId"`
}

type UpdateRequest[U any] struct {
	DataID IDRef `json:"dataId"`
	Data   U     `json:"data"`
}

type DeleteRequest struct {
	DataID IDRef `json:"dataId"`
}

// ByID builds a FindOneRequest.
func ByID(id string) FindOneRequest {
	return FindOneRequest{DataID: IDRef{ID: id}}
}
