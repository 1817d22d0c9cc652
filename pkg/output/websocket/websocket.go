package websocket

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/itohio/hktelem/pkg/config"
	"github.com/itohio/hktelem/pkg/frame"
	"github.com/itohio/hktelem/pkg/output"
)

const (
	DefaultAddr = ":8080"
	DefaultPath = "/ws"

	writeTimeout = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub broadcasts records to every connected browser.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// ServeHTTP upgrades the request and keeps the client registered until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[ws] = true
	h.mu.Unlock()

	// Incoming messages are ignored; reading detects disconnects.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			h.remove(ws)
			return
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish sends r as JSON to all clients. Clients that fail are dropped.
func (h *Hub) Publish(r frame.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := client.WriteJSON(r); err != nil {
			log.Printf("websocket write: %v", err)
			client.Close()
			delete(h.clients, client)
		}
	}
	return nil
}

// Close disconnects all clients.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
	return nil
}

func (h *Hub) remove(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[ws] {
		ws.Close()
		delete(h.clients, ws)
	}
}

// WebSocketOutput serves a Hub on its own HTTP listener.
type WebSocketOutput struct {
	*Hub
	srv *http.Server
	ln  net.Listener
}

// NewWebSocket starts listening on cfg.Addr and serves the hub on cfg.Path.
func NewWebSocket(cfg config.WebSocketConfig) (output.Output, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("websocket listen %s: %w", cfg.Addr, err)
	}

	hub := NewHub()
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, hub)

	o := &WebSocketOutput{
		Hub: hub,
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		ln:  ln,
	}
	go func() {
		log.Printf("Serving housekeeping websocket on %s%s", ln.Addr(), cfg.Path)
		if err := o.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("websocket server: %v", err)
		}
	}()
	return o, nil
}

// Addr returns the listening address.
func (o *WebSocketOutput) Addr() net.Addr {
	return o.ln.Addr()
}

// Close stops the listener and disconnects all clients.
func (o *WebSocketOutput) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	o.Hub.Close()
	return o.srv.Shutdown(ctx)
}
