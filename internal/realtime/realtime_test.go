package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmdesk/internal/filter"
	"pmdesk/internal/logging"
	"pmdesk/internal/query"
	"pmdesk/internal/transport"
)

func startHub(t *testing.T, maxConn int) (*Hub, *httptest.Server, *cookieLog) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(maxConn, logging.Discard())
	go hub.Run(ctx)

	cookies := &cookieLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie(transport.CookieName); err == nil {
			cookies.add(ck.Value)
		}
		hub.ServeWS(w, r, "u1")
	}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv, cookies
}

type cookieLog struct {
	mu     sync.Mutex
	values []string
}

func (c *cookieLog) add(v string) {
	c.mu.Lock()
	c.values = append(c.values, v)
	c.mu.Unlock()
}

func (c *cookieLog) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.values...)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestListenerAppliesChanges(t *testing.T) {
	hub, srv, cookies := startHub(t, 2)

	cache := query.NewCache(query.Options{StaleTime: time.Minute, Logger: logging.Discard()})
	list := filter.Key{Entity: "tasks", Unique: "110nameasc"}
	gone := filter.DetailKey("tasks", "t1")
	kept := filter.DetailKey("tasks", "t2")
	other := filter.Key{Entity: "projects", Unique: "110nameasc"}
	for _, k := range []filter.Key{list, gone, kept, other} {
		cache.Set(k, "data")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewListener(wsURL(srv), cache,
		WithReconnectDelay(10*time.Millisecond),
		WithTokenSource(func() string { return "tok" }),
		WithListenerLogger(logging.Discard()),
	)
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return hub.Connections("u1") == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"tok"}, cookies.all())

	require.NoError(t, hub.Broadcast(EntityChanged("tasks", "t1", ActionDeleted)))

	require.Eventually(t, func() bool { return !cache.Get(gone).Exists }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, cache.Get(list).Stale)
	assert.True(t, cache.Get(kept).Stale)
	assert.False(t, cache.Get(other).Stale)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestApply(t *testing.T) {
	cache := query.NewCache(query.Options{StaleTime: time.Minute})
	detail := filter.DetailKey("projects", "p1")
	list := filter.Key{Entity: "projects", Unique: "110nameasc"}
	cache.Set(detail, "p1")
	cache.Set(list, "page")

	l := NewListener("ws://unused", cache)

	l.Apply(Event{Type: "other", Entity: "projects", ID: "p1"})
	assert.False(t, cache.Get(detail).Stale, "unknown event types are ignored")

	l.Apply(EntityChanged("projects", "p1", ActionUpdated))
	assert.True(t, cache.Get(detail).Exists)
	assert.True(t, cache.Get(detail).Stale)
	assert.True(t, cache.Get(list).Stale)
}

func TestHubConnectionLimit(t *testing.T) {
	hub, srv, _ := startHub(t, 1)

	first, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer first.Close()
	require.Eventually(t, func() bool { return hub.Connections("u1") == 1 }, 2*time.Second, 10*time.Millisecond)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	first.Close()
	require.Eventually(t, func() bool { return hub.Connections("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastReachesClient(t *testing.T) {
	hub, srv, _ := startHub(t, 1)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Connections("u1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(EntityChanged("issues", "i9", ActionCreated)))

	var ev Event
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, TypeEntityChanged, ev.Type)
	assert.Equal(t, "issues", ev.Entity)
	assert.Equal(t, "i9", ev.ID)
	assert.Equal(t, ActionCreated, ev.Action)
}
