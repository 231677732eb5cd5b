package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"pmdesk/internal/filter"
	"pmdesk/internal/logging"
	"pmdesk/pkg/response"
)

var (
	// ErrSuperseded is returned to waiters of a fetch that was cancelled
	// before it resolved while the entry held no data to fall back to.
	ErrSuperseded = errors.New("query superseded")
	// ErrNoFetcher is returned by Refetch when neither the caller nor
	// an earlier fetch supplied a fetcher for the key.
	ErrNoFetcher = errors.New("query has no fetcher")
)

type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "idle"
}

// Fetcher loads the value of one entry.
type Fetcher func(ctx context.Context) (any, error)

type Options struct {
	// StaleTime is how long a resolved entry is served without refetching.
	StaleTime time.Duration
	// Retry is the number of extra attempts after a failed fetch.
	Retry      int
	RetryDelay time.Duration
	// Retryable decides whether a failed attempt is retried. The default
	// refuses schema failures and cancellations.
	Retryable func(error) bool
	Logger    logrus.FieldLogger
	Clock     func() time.Time
}

func DefaultOptions() Options {
	return Options{
		StaleTime: 5 * time.Second,
		Retry:     1,
	}
}

func defaultRetryable(err error) bool {
	return !errors.Is(err, response.ErrInvalidEnvelope) && !errors.Is(err, context.Canceled)
}

type entry struct {
	key         filter.Key
	status      Status
	prevStatus  Status
	data        any
	hasData     bool
	err         error
	updatedAt   time.Time
	invalidated bool
	generation  uint64
	fetcher     Fetcher
}

// State is a point-in-time copy of an entry.
type State struct {
	Key       filter.Key
	Exists    bool
	Status    Status
	Data      any
	HasData   bool
	Err       error
	UpdatedAt time.Time
	Stale     bool
}

type EventType int

const (
	EventUpdated EventType = iota
	EventInvalidated
	EventRemoved
)

// Event is delivered to subscribers after every cache write.
type Event struct {
	Key    filter.Key
	Type   EventType
	Status Status
}

// Cache holds query results keyed by filter.Key. All methods are safe for
// concurrent use; values are treated as immutable once stored.
type Cache struct {
	opts Options
	log  *logrus.Entry

	mu      sync.Mutex
	entries map[filter.Key]*entry
	seq     uint64
	group   singleflight.Group

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

func NewCache(opts Options) *Cache {
	if opts.Retryable == nil {
		opts.Retryable = defaultRetryable
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Retry < 0 {
		opts.Retry = 0
	}
	return &Cache{
		opts:    opts,
		log:     logging.Component(opts.Logger, "query"),
		entries: make(map[filter.Key]*entry),
		subs:    make(map[int]func(Event)),
	}
}

func (c *Cache) ensure(key filter.Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{key: key, generation: c.nextGen()}
		c.entries[key] = e
	}
	return e
}

// nextGen hands out generations that are unique across entries, so a
// flight of a removed entry can never settle into its replacement.
func (c *Cache) nextGen() uint64 {
	c.seq++
	return c.seq
}

func (c *Cache) stale(e *entry) bool {
	if e.invalidated || !e.hasData {
		return true
	}
	return c.opts.Clock().Sub(e.updatedAt) >= c.opts.StaleTime
}

func (c *Cache) snapshot(e *entry) State {
	return State{
		Key:       e.key,
		Exists:    true,
		Status:    e.status,
		Data:      e.data,
		HasData:   e.hasData,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Stale:     c.stale(e),
	}
}

// Fetch returns the entry's value, running fn when the entry is missing,
// stale or failed. Concurrent fetches of one key share a single call.
func (c *Cache) Fetch(ctx context.Context, key filter.Key, fn Fetcher) (any, error) {
	c.mu.Lock()
	e := c.ensure(key)
	e.fetcher = fn
	if e.status == StatusSuccess && !c.stale(e) {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	if e.status == StatusPending {
		return c.join(ctx, e)
	}
	return c.start(ctx, e)
}

// Refetch fetches key regardless of freshness. A nil fn reuses the
// fetcher the entry was last fetched with.
func (c *Cache) Refetch(ctx context.Context, key filter.Key, fn Fetcher) (any, error) {
	c.mu.Lock()
	e := c.ensure(key)
	if fn != nil {
		e.fetcher = fn
	}
	if e.fetcher == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNoFetcher, key)
	}
	if e.status == StatusPending {
		return c.join(ctx, e)
	}
	return c.start(ctx, e)
}

// start must be called with c.mu held; it releases it.
func (c *Cache) start(ctx context.Context, e *entry) (any, error) {
	e.prevStatus = e.status
	e.status = StatusPending
	key, gen, fn := e.key, e.generation, e.fetcher
	c.mu.Unlock()

	c.emit(Event{Key: key, Type: EventUpdated, Status: StatusPending})
	return c.wait(ctx, key, gen, fn)
}

// join must be called with c.mu held; it releases it.
func (c *Cache) join(ctx context.Context, e *entry) (any, error) {
	key, gen, fn := e.key, e.generation, e.fetcher
	c.mu.Unlock()
	return c.wait(ctx, key, gen, fn)
}

// wait shares one flight per key and generation. The flight outlives the
// caller's context; each caller stops waiting when its own context ends.
func (c *Cache) wait(ctx context.Context, key filter.Key, gen uint64, fn Fetcher) (any, error) {
	ch := c.group.DoChan(flightKey(key, gen), func() (any, error) {
		return c.run(context.WithoutCancel(ctx), key, gen, fn)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func flightKey(key filter.Key, gen uint64) string {
	return fmt.Sprintf("%q|%q|%d", key.Entity, key.Unique, gen)
}

func (c *Cache) run(ctx context.Context, key filter.Key, gen uint64, fn Fetcher) (any, error) {
	var (
		data any
		err  error
	)
	for attempt := 0; attempt <= c.opts.Retry; attempt++ {
		if attempt > 0 {
			c.log.WithField("key", key.String()).WithError(err).Debug("retrying fetch")
			if c.opts.RetryDelay > 0 {
				time.Sleep(c.opts.RetryDelay)
			}
		}
		data, err = fn(ctx)
		if err == nil || !c.opts.Retryable(err) {
			break
		}
	}
	return c.settle(key, gen, data, err)
}

func (c *Cache) settle(key filter.Key, gen uint64, data any, err error) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.generation != gen {
		var (
			cur any
			has bool
		)
		if ok {
			cur, has = e.data, e.hasData
		}
		c.mu.Unlock()
		c.log.WithField("key", key.String()).Debug("dropping superseded fetch result")
		if has {
			return cur, nil
		}
		return nil, ErrSuperseded
	}

	if err != nil {
		e.status = StatusError
		e.err = err
	} else {
		e.status = StatusSuccess
		e.data = data
		e.hasData = true
		e.err = nil
		e.updatedAt = c.opts.Clock()
		e.invalidated = false
	}
	status := e.status
	c.mu.Unlock()

	if err != nil {
		c.log.WithField("key", key.String()).WithError(err).Warn("fetch failed")
	}
	c.emit(Event{Key: key, Type: EventUpdated, Status: status})
	return data, err
}

// Cancel supersedes any in-flight fetch of key. Its result, when it
// arrives, is ignored.
func (c *Cache) Cancel(key filter.Key) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	old := e.generation
	e.generation = c.nextGen()
	wasPending := e.status == StatusPending
	if wasPending {
		e.status = e.prevStatus
	}
	status := e.status
	c.mu.Unlock()

	c.group.Forget(flightKey(key, old))
	if wasPending {
		c.emit(Event{Key: key, Type: EventUpdated, Status: status})
	}
}

func (c *Cache) Get(key filter.Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return State{Key: key}
	}
	return c.snapshot(e)
}

// Set stores data as a fresh successful result.
func (c *Cache) Set(key filter.Key, data any) {
	c.mu.Lock()
	e := c.ensure(key)
	c.store(e, data)
	c.mu.Unlock()

	c.emit(Event{Key: key, Type: EventUpdated, Status: StatusSuccess})
}

func (c *Cache) store(e *entry, data any) {
	e.data = data
	e.hasData = true
	e.err = nil
	e.updatedAt = c.opts.Clock()
	e.invalidated = false
	if e.status != StatusPending {
		e.status = StatusSuccess
	}
}

// Update atomically replaces the value of key with the result of fn.
// fn must not call back into the cache. Returning false leaves the entry
// untouched.
func (c *Cache) Update(key filter.Key, fn func(old any, ok bool) (any, bool)) {
	c.mu.Lock()
	var (
		old any
		has bool
	)
	if e, ok := c.entries[key]; ok && e.hasData {
		old, has = e.data, true
	}
	next, write := fn(old, has)
	if !write {
		c.mu.Unlock()
		return
	}
	c.store(c.ensure(key), next)
	c.mu.Unlock()

	c.emit(Event{Key: key, Type: EventUpdated, Status: StatusSuccess})
}

// Invalidate marks key stale so the next read refetches it.
func (c *Cache) Invalidate(key filter.Key) {
	c.mu.Lock()
	e, ok := c.entries[key]
	var status Status
	if ok {
		e.invalidated = true
		status = e.status
	}
	c.mu.Unlock()

	if ok {
		c.emit(Event{Key: key, Type: EventInvalidated, Status: status})
	}
}

// InvalidateEntity marks every entry of entity stale.
func (c *Cache) InvalidateEntity(entity string) {
	for _, key := range c.keysOf(entity) {
		c.Invalidate(key)
	}
}

func (c *Cache) Remove(key filter.Key) {
	c.mu.Lock()
	e, ok := c.entries[key]
	var gen uint64
	if ok {
		gen = e.generation
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if ok {
		c.group.Forget(flightKey(key, gen))
		c.emit(Event{Key: key, Type: EventRemoved})
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	for _, key := range c.Keys() {
		c.Remove(key)
	}
}

// Keys lists the cached keys in a stable order.
func (c *Cache) Keys() []filter.Key {
	return c.keysOf("")
}

func (c *Cache) keysOf(entity string) []filter.Key {
	c.mu.Lock()
	keys := make([]filter.Key, 0, len(c.entries))
	for k := range c.entries {
		if entity == "" || k.Entity == entity {
			keys = append(keys, k)
		}
	}
	c.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Entity != keys[j].Entity {
			return keys[i].Entity < keys[j].Entity
		}
		return keys[i].Unique < keys[j].Unique
	})
	return keys
}

// Subscribe registers fn for every cache event. fn runs on the writing
// goroutine and must not block.
func (c *Cache) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cache) emit(ev Event) {
	c.subMu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
