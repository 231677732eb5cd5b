package filter

import (
	"fmt"
	"net/url"

	"pmdesk/internal/domain"
)

// Key addresses one cache entry: a list view or a single record of an
// entity. An empty Unique addresses the entity as a whole.
type Key struct {
	Entity string
	Unique string
}

func (k Key) String() string {
	if k.Unique == "" {
		return k.Entity
	}
	return k.Entity + "/" + k.Unique
}

// EntityKey is the prefix key matching every entry of entity.
func EntityKey(entity string) Key {
	return Key{Entity: entity}
}

// DetailKey addresses the single-record entry for id.
func DetailKey(entity, id string) Key {
	return Key{Entity: entity, Unique: id}
}

// Strategy turns a filter into the unique part of a list key.
type Strategy int

const (
	// Concat joins the raw field values. Distinct filters can collide:
	// page=1,pageSize=23 and page=12,pageSize=3 both give "123".
	Concat Strategy = iota
	// Structured encodes field names too and never collides.
	Structured
)

func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "concat":
		return Concat, nil
	case "structured":
		return Structured, nil
	}
	return Concat, fmt.Errorf("unknown key strategy %q", s)
}

func (s Strategy) String() string {
	if s == Structured {
		return "structured"
	}
	return "concat"
}

// ListKey derives the cache key for the list of entity under f.
func (s Strategy) ListKey(entity string, f domain.Filter) Key {
	searchTerm, page, pageSize, sortColumn, sortOrder := f.Fields()
	if s == Structured {
		v := url.Values{}
		v.Set("searchTerm", searchTerm)
		v.Set("page", page)
		v.Set("pageSize", pageSize)
		v.Set("sortColumn", sortColumn)
		v.Set("sortOrder", sortOrder)
		return Key{Entity: entity, Unique: "?" + v.Encode()}
	}
	return Key{Entity: entity, Unique: searchTerm + page + pageSize + sortColumn + sortOrder}
}

// ListKey uses the Concat strategy.
func ListKey(entity string, f domain.Filter) Key {
	return Concat.ListKey(entity, f)
}
