package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"pmdesk/internal/logging"
	"pmdesk/internal/query"
	"pmdesk/internal/transport"
)

// Listener applies the server change feed to a query cache.
type Listener struct {
	url    string
	cache  *query.Cache
	delay  time.Duration
	token  func() string
	dialer *websocket.Dialer
	log    *logrus.Entry
}

type ListenerOption func(*Listener)

func WithReconnectDelay(d time.Duration) ListenerOption {
	return func(l *Listener) { l.delay = d }
}

// WithTokenSource sends the session cookie on every dial.
func WithTokenSource(fn func() string) ListenerOption {
	return func(l *Listener) { l.token = fn }
}

func WithListenerLogger(log logrus.FieldLogger) ListenerOption {
	return func(l *Listener) { l.log = logging.Component(log, "realtime") }
}

func NewListener(url string, cache *query.Cache, opts ...ListenerOption) *Listener {
	l := &Listener{
		url:    url,
		cache:  cache,
		delay:  3 * time.Second,
		dialer: websocket.DefaultDialer,
		log:    logging.Component(nil, "realtime"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run keeps a connection open until ctx ends, reconnecting after a fixed
// delay. It returns ctx's error.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.listen(ctx); err != nil && ctx.Err() == nil {
			l.log.WithError(err).Warn("realtime feed disconnected")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.delay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	header := http.Header{}
	if l.token != nil {
		if token := l.token(); token != "" {
			header.Set("Cookie", (&http.Cookie{Name: transport.CookieName, Value: token}).String())
		}
	}

	conn, _, err := l.dialer.DialContext(ctx, l.url, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	l.log.WithField("url", l.url).Debug("realtime feed connected")
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			l.log.WithError(err).Warn("dropping malformed realtime message")
			continue
		}
		l.Apply(ev)
	}
}

// Apply invalidates the lists of ev's entity and its detail entry. A
// deleted record's detail entry is removed instead.
func (l *Listener) Apply(ev Event) {
	if ev.Type != TypeEntityChanged || ev.Entity == "" {
		return
	}

	for _, key := range l.cache.Keys() {
		if key.Entity != ev.Entity {
			continue
		}
		if ev.ID != "" && key.Unique == ev.ID {
			if ev.Action == ActionDeleted {
				l.cache.Remove(key)
			} else {
				l.cache.Invalidate(key)
			}
			continue
		}
		l.cache.Invalidate(key)
	}

	l.log.WithFields(logrus.Fields{"entity": ev.Entity, "id": ev.ID, "action": ev.Action}).Debug("applied change")
}
