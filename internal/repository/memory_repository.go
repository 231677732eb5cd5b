package repository

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"pmdesk/internal/domain"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrExists        = errors.New("record already exists")
	ErrInvalidSort   = errors.New("invalid sort column")
	ErrInvalidFilter = errors.New("invalid filter")
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

// Schema describes how a repository reads records of type T.
type Schema[T any] struct {
	ID func(T) string
	// Field returns the value of a sortable column.
	Field func(item T, column string) (string, bool)
	// Searchable lists the columns matched by a search term.
	Searchable []string
}

// Repository is the storage surface the stub services use.
type Repository[T any] interface {
	Create(item T) error
	Get(id string) (T, error)
	Update(item T) error
	Delete(id string) error
	List() []T
	Find(f domain.Filter) (domain.Page[T], error)
}

// MemoryRepository keeps records in insertion order.
type MemoryRepository[T any] struct {
	schema Schema[T]

	mu    sync.RWMutex
	order []string
	items map[string]T
}

func NewMemoryRepository[T any](schema Schema[T]) *MemoryRepository[T] {
	return &MemoryRepository[T]{
		schema: schema,
		items:  make(map[string]T),
	}
}

func (r *MemoryRepository[T]) Create(item T) error {
	id := r.schema.ID(item)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; ok {
		return ErrExists
	}
	r.items[id] = item
	r.order = append(r.order, id)
	return nil
}

func (r *MemoryRepository[T]) Get(id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return item, nil
}

func (r *MemoryRepository[T]) Update(item T) error {
	id := r.schema.ID(item)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	r.items[id] = item
	return nil
}

func (r *MemoryRepository[T]) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository[T]) List() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

// Find applies search, sort and paging. Absent fields use the defaults
// page 1, page size 10 and insertion order.
func (r *MemoryRepository[T]) Find(f domain.Filter) (domain.Page[T], error) {
	page, pageSize := defaultPage, defaultPageSize
	if f.Page != nil {
		page = *f.Page
	}
	if f.PageSize != nil {
		pageSize = *f.PageSize
	}
	if page < 1 || pageSize < 1 || pageSize > maxPageSize {
		return domain.Page[T]{}, fmt.Errorf("%w: page %d, page size %d", ErrInvalidFilter, page, pageSize)
	}

	items := r.List()

	if f.SearchTerm != nil && *f.SearchTerm != "" {
		items = r.search(items, *f.SearchTerm)
	}

	if f.SortColumn != nil && *f.SortColumn != "" {
		desc := false
		if f.SortOrder != nil {
			switch strings.ToLower(*f.SortOrder) {
			case "", "asc":
			case "desc":
				desc = true
			default:
				return domain.Page[T]{}, fmt.Errorf("%w: sort order %q", ErrInvalidFilter, *f.SortOrder)
			}
		}
		if err := r.sort(items, *f.SortColumn, desc); err != nil {
			return domain.Page[T]{}, err
		}
	}

	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return domain.Page[T]{
		Items:           append([]T{}, items[start:end]...),
		Page:            page,
		PageSize:        pageSize,
		TotalCount:      total,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
		Links:           []domain.Link{},
	}, nil
}

func (r *MemoryRepository[T]) search(items []T, term string) []T {
	term = strings.ToLower(term)
	out := items[:0:0]
	for _, item := range items {
		for _, col := range r.schema.Searchable {
			if v, ok := r.schema.Field(item, col); ok && strings.Contains(strings.ToLower(v), term) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

func (r *MemoryRepository[T]) sort(items []T, column string, desc bool) error {
	var zero T
	if _, ok := r.schema.Field(zero, column); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidSort, column)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, _ := r.schema.Field(items[i], column)
		b, _ := r.schema.Field(items[j], column)
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
	return nil
}

// less orders numerically when both values are integers.
func less(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return strings.ToLower(a) < strings.ToLower(b)
}
