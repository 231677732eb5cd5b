package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"pmdesk/internal/logging"
)

var ErrTooManyConnections = errors.New("max connections reached")

const (
	defaultWriteWait  = 10 * time.Second
	defaultPongWait   = 60 * time.Second
	defaultPingPeriod = (defaultPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans change events out to every connected client.
type Hub struct {
	clients   map[string]*client
	userIndex map[string]map[string]bool
	mu        sync.RWMutex

	register   chan *client
	unregister chan *client
	done       chan struct{}

	maxConnPerUser int
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	log            *logrus.Entry
}

func NewHub(maxConnPerUser int, log logrus.FieldLogger) *Hub {
	if maxConnPerUser <= 0 {
		maxConnPerUser = 1
	}
	return &Hub{
		clients:        make(map[string]*client),
		userIndex:      make(map[string]map[string]bool),
		register:       make(chan *client),
		unregister:     make(chan *client),
		done:           make(chan struct{}),
		maxConnPerUser: maxConnPerUser,
		writeWait:      defaultWriteWait,
		pongWait:       defaultPongWait,
		pingPeriod:     defaultPingPeriod,
		log:            logging.Component(log, "realtime"),
	}
}

// Run serves registrations until ctx ends, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		}
	}
}

func (h *Hub) registerClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.userIndex[c.userID]) >= h.maxConnPerUser {
		h.log.WithField("user_id", c.userID).Warn("max connections reached")
		close(c.send)
		return
	}
	if h.userIndex[c.userID] == nil {
		h.userIndex[c.userID] = make(map[string]bool)
	}
	h.clients[c.id] = c
	h.userIndex[c.userID][c.id] = true

	h.log.WithFields(logrus.Fields{"client_id": c.id, "user_id": c.userID}).Debug("client registered")
}

func (h *Hub) unregisterClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	delete(h.userIndex[c.userID], c.id)
	if len(h.userIndex[c.userID]) == 0 {
		delete(h.userIndex, c.userID)
	}
	close(c.send)
	h.log.WithField("client_id", c.id).Debug("client unregistered")
}

// leave unregisters c unless the hub has stopped.
func (h *Hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
	h.userIndex = make(map[string]map[string]bool)
}

// ServeWS upgrades r and attaches the connection to userID. Run must be
// serving the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	if h.Connections(userID) >= h.maxConnPerUser {
		http.Error(w, ErrTooManyConnections.Error(), http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := newClient(uuid.NewString(), userID, conn, h)
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Broadcast sends ev to every client. Clients whose buffer is full are
// dropped.
func (h *Hub) Broadcast(ev Event) error {
	msg, err := ev.Marshal()
	if err != nil {
		return err
	}

	h.mu.RLock()
	var slow []*client
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.WithField("client_id", c.id).Warn("send buffer full, closing connection")
		h.leave(c)
	}
	return nil
}

func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userIndex[userID])
}
