package observer

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/draftwatch/agent/internal/model"
)

// Bridge is a loopback WebSocket server that broadcasts state changes,
// dispatches, and errors to any number of locally-connected subscribers
// (e.g. an excluded settings UI). It implements Observer so the Supervisor
// can attach it like any other observer; with zero connected clients it
// behaves identically to no observer at all.
type Bridge struct {
	addr     string
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	server  *http.Server
}

// NewBridge builds a Bridge that will listen on loopback:port once Start
// is called.
func NewBridge(port string, log zerolog.Logger) *Bridge {
	return &Bridge{
		addr: "127.0.0.1:" + port,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     log.With().Str("component", "observer.bridge").Logger(),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Start begins listening in a background goroutine. A bridge that is never
// started is a silent, harmless no-op observer.
func (b *Bridge) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/", b.handleWS)
	b.server = &http.Server{Addr: b.addr, Handler: mux}

	go func() {
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			b.log.Error().Err(err).Msg("bridge: server error")
		}
	}()
}

// Stop closes all client connections and shuts the server down.
func (b *Bridge) Stop() {
	b.mu.Lock()
	for conn := range b.clients {
		conn.Close()
		delete(b.clients, conn)
	}
	b.mu.Unlock()
	if b.server != nil {
		b.server.Close()
	}
}

func (b *Bridge) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Error().Err(err).Msg("bridge: upgrade failed")
		return
	}

	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.clients, conn)
			b.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			// Subscribers are read-only; any inbound message is ignored.
		}
	}()
}

func (b *Bridge) broadcast(msg any) {
	raw, err := json.Marshal(msg)
	if err != nil {
		b.log.Error().Err(err).Msg("bridge: marshal failed")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			conn.Close()
			delete(b.clients, conn)
		}
	}
}

// ConnectionCount reports how many subscribers are currently attached.
func (b *Bridge) ConnectionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Bridge) OnStateChange(state model.State, draft *model.DraftState) {
	b.broadcast(map[string]any{"type": "state_change", "state": state, "draft": draft})
}

func (b *Bridge) OnDispatch(url string, feature model.Feature) {
	b.broadcast(map[string]any{"type": "dispatch", "url": url, "feature": feature})
}

func (b *Bridge) OnError(kind string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	b.broadcast(map[string]any{"type": "error", "kind": kind, "message": msg})
}
