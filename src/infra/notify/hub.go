// Package notify delivers engine notices to websocket clients.
//
// A client connects to the hub with its user id and, optionally, the group
// it is watching. Direct messages go to every connection of the user; group
// notices go to every connection watching the group.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mindscale/src/core/domain"
	"mindscale/src/core/ports"
)

var _ ports.Messenger = (*Hub)(nil)

// ErrNoRecipient is returned when a direct message has no live connection.
var ErrNoRecipient = errors.New("recipient not connected")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 32
	readLimit  = 4 << 10
)

type client struct {
	conn    *websocket.Conn
	userID  int64
	groupID int64
	send    chan []byte
	once    sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub tracks websocket connections and implements ports.Messenger.
type Hub struct {
	mu      sync.RWMutex
	byUser  map[int64]map[*client]struct{}
	byGroup map[int64]map[*client]struct{}
	closed  bool

	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHub creates a hub. An empty origins list accepts any origin.
func NewHub(allowedOrigins []string, log *slog.Logger) *Hub {
	h := &Hub{
		byUser:  make(map[int64]map[*client]struct{}),
		byGroup: make(map[int64]map[*client]struct{}),
		log:     log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
		},
	}
	return h
}

// ServeHTTP upgrades the request. Query parameters: user_id (required) and
// group_id (optional).
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, err := strconv.ParseInt(q.Get("user_id"), 10, 64)
	if err != nil || userID == 0 {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	var groupID int64
	if raw := q.Get("group_id"); raw != "" {
		groupID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "group_id must be an integer", http.StatusBadRequest)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, userID: userID, groupID: groupID, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}
	h.log.Debug("websocket connected", "user_id", userID, "group_id", groupID)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	add(h.byUser, c.userID, c)
	if c.groupID != 0 {
		add(h.byGroup, c.groupID, c)
	}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	remove(h.byUser, c.userID, c)
	if c.groupID != 0 {
		remove(h.byGroup, c.groupID, c)
	}
	h.mu.Unlock()
	c.close()
}

func add(m map[int64]map[*client]struct{}, key int64, c *client) {
	set, ok := m[key]
	if !ok {
		set = make(map[*client]struct{})
		m[key] = set
	}
	set[c] = struct{}{}
}

func remove(m map[int64]map[*client]struct{}, key int64, c *client) {
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(m, key)
	}
}

// readPump discards inbound frames; it only keeps the read deadline fresh
// and notices when the peer goes away.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.log.Debug("websocket disconnected", "user_id", c.userID, "group_id", c.groupID)
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendToUser queues the notice on every connection of the user.
func (h *Hub) SendToUser(ctx context.Context, userID int64, notice domain.Notice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.enqueue(h.byUser[userID], payload) == 0 {
		return ErrNoRecipient
	}
	return ctx.Err()
}

// SendToGroup queues the notice on every connection watching the group.
// A group nobody watches is not an error.
func (h *Hub) SendToGroup(ctx context.Context, groupID int64, notice domain.Notice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.enqueue(h.byGroup[groupID], payload)
	return ctx.Err()
}

// enqueue never blocks: a connection whose buffer is full misses the notice.
// Must be called with mu held.
func (h *Hub) enqueue(set map[*client]struct{}, payload []byte) int {
	sent := 0
	for c := range set {
		select {
		case c.send <- payload:
			sent++
		default:
			h.log.Warn("websocket buffer full, dropping notice", "user_id", c.userID, "group_id", c.groupID)
		}
	}
	return sent
}

// Connections reports the number of live connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.byUser {
		n += len(set)
	}
	return n
}

// Health fails once the hub has been closed.
func (h *Hub) Health(context.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return errors.New("notification hub closed")
	}
	return nil
}

// Close disconnects every client and rejects new connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	n := 0
	for _, set := range h.byUser {
		for c := range set {
			c.close()
			n++
		}
	}
	clear(h.byUser)
	clear(h.byGroup)
	h.log.Info("notification hub closed", "connections", n)
}
