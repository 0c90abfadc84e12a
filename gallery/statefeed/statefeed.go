// Package statefeed streams the gallery's observable state to overlay clients over a websocket.
//
// Every published scene snapshot is sent as one JSON text message. Project details for the
// overlay are sent as {"detail": ...} messages. A client that connects late receives the most
// recent snapshot and detail immediately.
package statefeed

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gallery/engine/scene"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 5 * time.Second
	sendBuffer  = 16
	shutdownMax = 2 * time.Second
)

// Source is where snapshots come from. scene.Scene satisfies it.
type Source interface {
	Snapshot() *scene.Snapshot
	Updates() <-chan struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans snapshots out to connected websocket clients.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	latest   [2][]byte // last state and detail messages
	upgrader websocket.Upgrader
}

// NewHub creates a Hub with no clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			// overlays are served from file:// or a dev server on another port
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns an http.Handler serving the feed on /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	return mux
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[StateFeed] upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	for _, msg := range h.latest {
		if msg != nil {
			c.send <- msg
		}
	}
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("[StateFeed] client %s connected (%d total)", conn.RemoteAddr(), count)

	go h.writeLoop(c)

	// Client messages are ignored; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	log.Printf("[StateFeed] client %s disconnected", conn.RemoteAddr())
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("[StateFeed] write to %s failed: %v", c.conn.RemoteAddr(), err)
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// remove unregisters c and closes its send channel once.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Publish sends snap to every client and keeps it for late joiners.
// Clients that cannot keep up are disconnected.
//
// Parameters:
//   - snap: the snapshot to send; nil is ignored
func (h *Hub) Publish(snap *scene.Snapshot) {
	if snap == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[StateFeed] marshal snapshot: %v", err)
		return
	}
	h.broadcast(0, data)
}

// PublishDetail sends overlay details for the focused project and keeps them for late joiners.
//
// Parameters:
//   - detail: any JSON-encodable value; nil clears the detail
func (h *Hub) PublishDetail(detail any) {
	data, err := json.Marshal(map[string]any{"detail": detail})
	if err != nil {
		log.Printf("[StateFeed] marshal detail: %v", err)
		return
	}
	h.broadcast(1, data)
}

// broadcast stores data in the given latest slot and queues it for every client.
func (h *Hub) broadcast(slot int, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest[slot] = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Printf("[StateFeed] client %s too slow, dropping", c.conn.RemoteAddr())
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Follow publishes src's snapshot now and after every update until ctx is done.
//
// Parameters:
//   - ctx: stops following
//   - src: the snapshot source, usually the active scene
func (h *Hub) Follow(ctx context.Context, src Source) {
	h.Publish(src.Snapshot())
	updates := src.Updates()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			h.Publish(src.Snapshot())
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Serve listens on addr and serves the feed until ctx is done.
//
// Parameters:
//   - ctx: shuts the server down
//   - addr: the listen address, e.g. "127.0.0.1:7878"
//
// Returns:
//   - error: error if the listener fails; nil after a clean shutdown
func (h *Hub) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
	log.Printf("[StateFeed] serving ws://%s/ws", ln.Addr())

	go func() {
		<-ctx.Done()
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownMax)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
