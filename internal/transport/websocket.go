// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"waveform/internal/log"
)

// FramesPath is the endpoint clients connect to.
const FramesPath = "/frames"

const writeTimeout = time.Second

// WebSocketTransport broadcasts JSON-encoded data to every connected client.
// Sends closer together than the minimum interval are dropped, as are sends
// while the broadcast queue is full.
type WebSocketTransport struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan []byte
	done      chan struct{}
	closeOnce sync.Once
	server    *http.Server

	minSendInterval time.Duration
	rateMu          sync.Mutex
	lastSend        time.Time
}

// NewWebSocketTransport creates a transport and starts its broadcast loop. It
// does not listen until Listen is called; Handler can be mounted elsewhere.
func NewWebSocketTransport(minSendInterval time.Duration) *WebSocketTransport {
	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Frames are public, any page may draw them.
			},
		},
		clients:         make(map[*websocket.Conn]bool),
		broadcast:       make(chan []byte, 16),
		done:            make(chan struct{}),
		minSendInterval: minSendInterval,
	}
	go wst.handleBroadcasts()
	return wst
}

// Handler returns the HTTP handler serving FramesPath.
func (wst *WebSocketTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(FramesPath, wst.handleWebSocket)
	return mux
}

// Listen serves Handler on addr and returns the bound address.
func (wst *WebSocketTransport) Listen(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	wst.server = &http.Server{
		Handler:           wst.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Infof("WebSocketTransport: Serving frames on ws://%s%s", ln.Addr(), FramesPath)
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()
	return ln.Addr(), nil
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	log.Debugf("WebSocketTransport: Client connected, total: %d", total)

	// Drain reads until the client goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.drop(conn)
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	if ok {
		conn.Close()
		log.Debugf("WebSocketTransport: Client disconnected, total: %d", total)
	}
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// handleBroadcasts sends messages to all connected clients
func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case <-wst.done:
			return
		case msg := <-wst.broadcast:
			wst.clientsMu.Lock()
			for client := range wst.clients {
				client.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := client.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.Debugf("WebSocketTransport: Error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		}
	}
}

// allow applies the rate limit at time now.
func (wst *WebSocketTransport) allow(now time.Time) bool {
	wst.rateMu.Lock()
	defer wst.rateMu.Unlock()
	if !wst.lastSend.IsZero() && now.Sub(wst.lastSend) < wst.minSendInterval {
		return false
	}
	wst.lastSend = now
	return true
}

// Send queues data for broadcast. Rate-limited or overflowing sends are
// dropped without error; only encoding failures are reported.
func (wst *WebSocketTransport) Send(data any) error {
	if wst.Clients() == 0 || !wst.allow(time.Now()) {
		return nil
	}
	msg, err := json.Marshal(data)
	if err != nil {
		return err
	}
	select {
	case wst.broadcast <- msg:
	default:
	}
	return nil
}

// Close disconnects every client and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		log.Debugf("WebSocketTransport: Closing server")
		close(wst.done)

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		if wst.server != nil {
			err = wst.server.Close()
		}
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
