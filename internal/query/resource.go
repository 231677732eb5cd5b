package query

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pmdesk/internal/domain"
	"pmdesk/internal/filter"
	"pmdesk/internal/logging"
	"pmdesk/pkg/response"
)

// Service is the adapter surface a resource drives.
type Service[T, C, U any] interface {
	Entity() string
	Find(ctx context.Context, f domain.Filter) (*response.Envelope[domain.Page[T]], error)
	FindOne(ctx context.Context, req domain.FindOneRequest) (*response.Envelope[T], error)
	CreateOne(ctx context.Context, data C) (*response.Envelope[string], error)
	UpdateOne(ctx context.Context, req domain.UpdateRequest[U]) (*response.Envelope[json.RawMessage], error)
	DeleteOne(ctx context.Context, req domain.DeleteRequest) (*response.Envelope[json.RawMessage], error)
}

// Binding tells the generic engine how to handle one record type.
type Binding[T, C, U any] struct {
	ID         func(T) string
	SetID      func(T, string) T
	FromCreate func(id string, data C) T
	Merge      func(T, U) T
}

type ResourceConfig struct {
	Strategy filter.Strategy
	// View returns the filter an entity's list was last shown with,
	// before this process has read any list of it. Mutations patch the
	// list cached under the current view.
	View func(entity string) domain.Filter
	// PlaceholderID generates the temporary id of optimistic inserts.
	PlaceholderID func() string
	Logger        logrus.FieldLogger
}

func placeholderID() string {
	return "temp-" + uuid.NewString()
}

// Result is the observable state of a read.
type Result[D any] struct {
	Status    Status
	IsPending bool
	Data      D
	Err       error
}

// Resource is the cached, optimistic view of one entity.
type Resource[T, C, U any] struct {
	entity  string
	cache   *Cache
	svc     Service[T, C, U]
	binding Binding[T, C, U]
	cfg     ResourceConfig
	log     *logrus.Entry

	mu   sync.Mutex
	view *domain.Filter
}

func NewResource[T, C, U any](cache *Cache, entity string, svc Service[T, C, U], binding Binding[T, C, U], cfg ResourceConfig) *Resource[T, C, U] {
	if cfg.View == nil {
		cfg.View = func(string) domain.Filter { return domain.DefaultFilter() }
	}
	if cfg.PlaceholderID == nil {
		cfg.PlaceholderID = placeholderID
	}
	return &Resource[T, C, U]{
		entity:  entity,
		cache:   cache,
		svc:     svc,
		binding: binding,
		cfg:     cfg,
		log:     logging.Component(cfg.Logger, "resource").WithField("entity", entity),
	}
}

func (r *Resource[T, C, U]) Entity() string { return r.entity }

func (r *Resource[T, C, U]) Cache() *Cache { return r.cache }

func (r *Resource[T, C, U]) ListKey(f domain.Filter) filter.Key {
	return r.cfg.Strategy.ListKey(r.entity, f)
}

func (r *Resource[T, C, U]) DetailKey(id string) filter.Key {
	return filter.DetailKey(r.entity, id)
}

// View is the filter of the list mutations patch: the last one passed to
// Find, Refresh or SetView, else the configured view.
func (r *Resource[T, C, U]) View() domain.Filter {
	r.mu.Lock()
	v := r.view
	r.mu.Unlock()
	if v != nil {
		return *v
	}
	return r.cfg.View(r.entity)
}

// SetView makes f the list mutations patch.
func (r *Resource[T, C, U]) SetView(f domain.Filter) {
	r.mu.Lock()
	r.view = &f
	r.mu.Unlock()
}

func (r *Resource[T, C, U]) listFetcher(f domain.Filter) Fetcher {
	return func(ctx context.Context) (any, error) {
		env, err := r.svc.Find(ctx, f)
		if err != nil {
			return nil, err
		}
		if env == nil || env.Data == nil {
			return domain.EmptyPage[T](), nil
		}
		return *env.Data, nil
	}
}

func (r *Resource[T, C, U]) detailFetcher(req domain.FindOneRequest) Fetcher {
	return func(ctx context.Context) (any, error) {
		env, err := r.svc.FindOne(ctx, req)
		if err != nil {
			return nil, err
		}
		var zero T
		if env == nil || env.Data == nil {
			return zero, nil
		}
		return *env.Data, nil
	}
}

// Find returns the page for f, fetching it unless a fresh copy is cached.
// Data is never absent: before the first success it is the empty page.
func (r *Resource[T, C, U]) Find(ctx context.Context, f domain.Filter) Result[domain.Page[T]] {
	r.SetView(f)
	key := r.ListKey(f)
	_, err := r.cache.Fetch(ctx, key, r.listFetcher(f))
	return r.pageResult(key, err)
}

// Refresh refetches the page for f regardless of freshness.
func (r *Resource[T, C, U]) Refresh(ctx context.Context, f domain.Filter) Result[domain.Page[T]] {
	r.SetView(f)
	key := r.ListKey(f)
	_, err := r.cache.Refetch(ctx, key, r.listFetcher(f))
	return r.pageResult(key, err)
}

// Peek reports the cached state for f without fetching.
func (r *Resource[T, C, U]) Peek(f domain.Filter) Result[domain.Page[T]] {
	key := r.ListKey(f)
	return r.pageResult(key, r.cache.Get(key).Err)
}

func (r *Resource[T, C, U]) pageResult(key filter.Key, err error) Result[domain.Page[T]] {
	state := r.cache.Get(key)
	page, ok := GetQueryData[domain.Page[T]](r.cache, key)
	if !ok {
		page = domain.EmptyPage[T]()
	}
	if err == nil {
		err = state.Err
	}
	if errors.Is(err, ErrSuperseded) {
		err = nil
	}
	return Result[domain.Page[T]]{
		Status:    state.Status,
		IsPending: state.Status == StatusPending,
		Data:      page,
		Err:       err,
	}
}

// FindOne returns the record req names. An empty id is an idle query: no
// request is made and Data is the zero record.
func (r *Resource[T, C, U]) FindOne(ctx context.Context, req domain.FindOneRequest) Result[T] {
	if req.DataID.ID == "" {
		return Result[T]{Status: StatusIdle}
	}
	key := r.DetailKey(req.DataID.ID)
	_, err := r.cache.Fetch(ctx, key, r.detailFetcher(req))

	state := r.cache.Get(key)
	rec, _ := GetQueryData[T](r.cache, key)
	if err == nil {
		err = state.Err
	}
	if errors.Is(err, ErrSuperseded) {
		err = nil
	}
	return Result[T]{
		Status:    state.Status,
		IsPending: state.Status == StatusPending,
		Data:      rec,
		Err:       err,
	}
}

// pageSnapshot is the rollback context of a list mutation.
type pageSnapshot[T any] struct {
	key  filter.Key
	page domain.Page[T]
	had  bool
}

func (r *Resource[T, C, U]) takeSnapshot(key filter.Key) pageSnapshot[T] {
	r.cache.Cancel(key)
	page, had := GetQueryData[domain.Page[T]](r.cache, key)
	return pageSnapshot[T]{key: key, page: page, had: had}
}

func (r *Resource[T, C, U]) restore(snap pageSnapshot[T]) {
	if snap.had {
		SetQueryData(r.cache, snap.key, snap.page)
		return
	}
	r.cache.Remove(snap.key)
}

func (r *Resource[T, C, U]) mapItems(key filter.Key, fn func([]T) []T) {
	UpdateQueryData(r.cache, key, func(cur domain.Page[T], ok bool) (domain.Page[T], bool) {
		if !ok {
			return cur, false
		}
		return cur.WithItems(fn(cur.Items)), true
	})
}

// Create inserts a placeholder record into the current list, posts data
// and swaps the placeholder for the server id once it is known.
func (r *Resource[T, C, U]) Create(ctx context.Context, data C) MutationResult[string] {
	view := r.View()
	key := r.ListKey(view)
	tempID := r.cfg.PlaceholderID()

	m := Mutation[C, *response.Envelope[string], pageSnapshot[T]]{
		Fn: func(ctx context.Context, data C) (*response.Envelope[string], error) {
			env, err := r.svc.CreateOne(ctx, data)
			return checkEnvelope(env, err)
		},
		OnMutate: func(ctx context.Context, data C) pageSnapshot[T] {
			snap := r.takeSnapshot(key)
			item := r.binding.FromCreate(tempID, data)
			if snap.had {
				items := make([]T, 0, len(snap.page.Items)+1)
				items = append(items, snap.page.Items...)
				items = append(items, item)
				SetQueryData(r.cache, key, snap.page.WithItems(items))
			} else {
				SetQueryData(r.cache, key, domain.SingleItemPage(item))
			}
			return snap
		},
		OnSuccess: func(ctx context.Context, env *response.Envelope[string], data C, snap pageSnapshot[T]) {
			var id string
			if env != nil && env.Data != nil {
				id = *env.Data
			}
			UpdateQueryData(r.cache, key, func(cur domain.Page[T], ok bool) (domain.Page[T], bool) {
				if !ok {
					return domain.SingleItemPage(r.binding.FromCreate(id, data)), true
				}
				items := make([]T, len(cur.Items))
				for i, it := range cur.Items {
					if r.binding.ID(it) == tempID {
						it = r.binding.SetID(it, id)
					}
					items[i] = it
				}
				return cur.WithItems(items), true
			})
			if _, err := r.cache.Refetch(ctx, key, r.listFetcher(view)); err != nil {
				r.log.WithError(err).Warn("refetch after create failed")
			}
		},
		OnError: func(ctx context.Context, err error, data C, snap pageSnapshot[T]) {
			r.log.WithError(err).Warn("create failed, rolling back")
			r.restore(snap)
		},
		OnSettled: func(ctx context.Context, _ *response.Envelope[string], _ error, _ C, _ pageSnapshot[T]) {
			r.cache.Invalidate(key)
		},
	}

	env, err := Mutate(ctx, m, data)
	return newMutationResult(env, err, "")
}

// Update merges req into the matching cached record before and after the
// server confirms it.
func (r *Resource[T, C, U]) Update(ctx context.Context, req domain.UpdateRequest[U]) MutationResult[json.RawMessage] {
	key := r.ListKey(r.View())
	id := req.DataID.ID
	merge := func(items []T) []T {
		out := make([]T, len(items))
		for i, it := range items {
			if r.binding.ID(it) == id {
				it = r.binding.Merge(it, req.Data)
			}
			out[i] = it
		}
		return out
	}

	m := Mutation[domain.UpdateRequest[U], *response.Envelope[json.RawMessage], pageSnapshot[T]]{
		Fn: func(ctx context.Context, req domain.UpdateRequest[U]) (*response.Envelope[json.RawMessage], error) {
			env, err := r.svc.UpdateOne(ctx, req)
			return checkEnvelope(env, err)
		},
		OnMutate: func(ctx context.Context, _ domain.UpdateRequest[U]) pageSnapshot[T] {
			snap := r.takeSnapshot(key)
			if snap.had {
				SetQueryData(r.cache, key, snap.page.WithItems(merge(snap.page.Items)))
			}
			return snap
		},
		OnSuccess: func(ctx context.Context, _ *response.Envelope[json.RawMessage], _ domain.UpdateRequest[U], _ pageSnapshot[T]) {
			r.mapItems(key, merge)
			r.cache.Invalidate(key)
		},
		OnError: func(ctx context.Context, err error, _ domain.UpdateRequest[U], snap pageSnapshot[T]) {
			r.log.WithError(err).WithField("id", id).Warn("update failed, rolling back")
			if snap.had {
				r.restore(snap)
			}
		},
		OnSettled: func(ctx context.Context, _ *response.Envelope[json.RawMessage], _ error, _ domain.UpdateRequest[U], _ pageSnapshot[T]) {
			r.cache.Invalidate(key)
			if id != "" {
				r.cache.Invalidate(r.DetailKey(id))
			}
		},
	}

	env, err := Mutate(ctx, m, req)
	return newMutationResult(env, err, "")
}

// Delete drops the record from the current list immediately and evicts
// its detail entry once the server confirms.
func (r *Resource[T, C, U]) Delete(ctx context.Context, req domain.DeleteRequest) MutationResult[json.RawMessage] {
	key := r.ListKey(r.View())
	id := req.DataID.ID
	without := func(items []T) []T {
		out := make([]T, 0, len(items))
		for _, it := range items {
			if r.binding.ID(it) != id {
				out = append(out, it)
			}
		}
		return out
	}

	m := Mutation[domain.DeleteRequest, *response.Envelope[json.RawMessage], pageSnapshot[T]]{
		Fn: func(ctx context.Context, req domain.DeleteRequest) (*response.Envelope[json.RawMessage], error) {
			env, err := r.svc.DeleteOne(ctx, req)
			return checkEnvelope(env, err)
		},
		OnMutate: func(ctx context.Context, _ domain.DeleteRequest) pageSnapshot[T] {
			snap := r.takeSnapshot(key)
			if snap.had {
				SetQueryData(r.cache, key, snap.page.WithItems(without(snap.page.Items)))
			}
			return snap
		},
		OnSuccess: func(ctx context.Context, _ *response.Envelope[json.RawMessage], _ domain.DeleteRequest, _ pageSnapshot[T]) {
			r.mapItems(key, without)
			r.cache.Invalidate(key)
			if id != "" {
				r.cache.Remove(r.DetailKey(id))
			}
		},
		OnError: func(ctx context.Context, err error, _ domain.DeleteRequest, snap pageSnapshot[T]) {
			r.log.WithError(err).WithField("id", id).Warn("delete failed, rolling back")
			if snap.had {
				r.restore(snap)
			}
		},
		OnSettled: func(ctx context.Context, _ *response.Envelope[json.RawMessage], _ error, _ domain.DeleteRequest, _ pageSnapshot[T]) {
			r.cache.Invalidate(key)
		},
	}

	env, err := Mutate(ctx, m, req)
	return newMutationResult(env, err, "Deleted successfully")
}
