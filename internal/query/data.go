package query

import (
	"encoding/json"
	"fmt"
	"time"

	"pmdesk/internal/filter"
)

// coerce converts a stored value to T. Hydrated entries hold raw JSON
// until first typed access.
func coerce[T any](v any) (T, bool) {
	var zero T
	switch val := v.(type) {
	case T:
		return val, true
	case json.RawMessage:
		var out T
		if err := json.Unmarshal(val, &out); err != nil {
			return zero, false
		}
		return out, true
	}
	return zero, false
}

// GetQueryData returns the typed value of key.
func GetQueryData[T any](c *Cache, key filter.Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok || !e.hasData {
		return zero, false
	}
	v, ok := coerce[T](e.data)
	if !ok {
		return zero, false
	}
	if _, raw := e.data.(json.RawMessage); raw {
		e.data = v
	}
	return v, true
}

func SetQueryData[T any](c *Cache, key filter.Key, v T) {
	c.Set(key, v)
}

// UpdateQueryData applies fn to the typed value of key atomically. When
// fn returns false the entry is left as it was.
func UpdateQueryData[T any](c *Cache, key filter.Key, fn func(old T, ok bool) (T, bool)) {
	c.Update(key, func(old any, has bool) (any, bool) {
		var cur T
		if has {
			cur, has = coerce[T](old)
		}
		return fn(cur, has)
	})
}

// DehydratedEntry is the serialized form of one cache entry.
type DehydratedEntry struct {
	Entity    string          `json:"entity"`
	Unique    string          `json:"unique"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (d DehydratedEntry) Key() filter.Key {
	return filter.Key{Entity: d.Entity, Unique: d.Unique}
}

// Dehydrate exports every entry holding data.
func (c *Cache) Dehydrate() ([]DehydratedEntry, error) {
	c.mu.Lock()
	type item struct {
		key       filter.Key
		data      any
		updatedAt time.Time
	}
	items := make([]item, 0, len(c.entries))
	for k, e := range c.entries {
		if e.hasData {
			items = append(items, item{key: k, data: e.data, updatedAt: e.updatedAt})
		}
	}
	c.mu.Unlock()

	out := make([]DehydratedEntry, 0, len(items))
	for _, it := range items {
		raw, ok := it.data.(json.RawMessage)
		if !ok {
			b, err := json.Marshal(it.data)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s: %w", it.key, err)
			}
			raw = b
		}
		out = append(out, DehydratedEntry{
			Entity:    it.key.Entity,
			Unique:    it.key.Unique,
			Data:      raw,
			UpdatedAt: it.updatedAt,
		})
	}
	return out, nil
}

// Hydrate imports entries as stale data. Entries already holding newer
// data are kept.
func (c *Cache) Hydrate(entries []DehydratedEntry) int {
	var written []filter.Key

	c.mu.Lock()
	for _, d := range entries {
		key := d.Key()
		if e, ok := c.entries[key]; ok && e.hasData && !e.updatedAt.Before(d.UpdatedAt) {
			continue
		}
		e := c.ensure(key)
		e.data = append(json.RawMessage(nil), d.Data...)
		e.hasData = true
		e.err = nil
		e.updatedAt = d.UpdatedAt
		e.invalidated = true
		if e.status != StatusPending {
			e.status = StatusSuccess
		}
		written = append(written, key)
	}
	c.mu.Unlock()

	for _, key := range written {
		c.emit(Event{Key: key, Type: EventUpdated, Status: StatusSuccess})
	}
	return len(written)
}
