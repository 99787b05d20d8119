package session

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// notifier fans out change notices to the websockets watching a session.
// It carries no payload beyond the event name: clients react by pulling a
// fresh snapshot, keeping the core free of rendering-order concerns.
type notifier struct {
	mu    sync.Mutex
	conns map[string]map[*websocket.Conn]bool
	log   *zap.Logger
}

type sessionEvent struct {
	Event string `json:"event"`
}

func newNotifier(log *zap.Logger) *notifier {
	return &notifier{
		conns: make(map[string]map[*websocket.Conn]bool),
		log:   log,
	}
}

func (n *notifier) add(sessionID string, conn *websocket.Conn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conns[sessionID] == nil {
		n.conns[sessionID] = make(map[*websocket.Conn]bool)
	}
	n.conns[sessionID][conn] = true
}

func (n *notifier) remove(sessionID string, conn *websocket.Conn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.conns[sessionID], conn)
	_ = conn.Close()
}

// broadcast tells every watcher of sessionID that its state changed.
func (n *notifier) broadcast(sessionID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for conn := range n.conns[sessionID] {
		if err := conn.WriteJSON(sessionEvent{Event: "session_updated"}); err != nil {
			n.log.Debug("dropping dead websocket", zap.String("session", sessionID), zap.Error(err))
			delete(n.conns[sessionID], conn)
			_ = conn.Close()
		}
	}
}

// closeSession closes every watcher when a session ends.
func (n *notifier) closeSession(sessionID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for conn := range n.conns[sessionID] {
		_ = conn.Close()
	}
	delete(n.conns, sessionID)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway is origin-agnostic; access control is the deployment's job.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents upgrades to a websocket that receives change notices for
// one session. The socket is write-only from the gateway's side; reads
// only detect the client going away.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.registry.Get(sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.String("session", sessionID), zap.Error(err))
		return
	}

	h.notifier.add(sessionID, conn)
	h.log.Info("event stream opened", zap.String("session", sessionID))

	go func() {
		defer func() {
			h.notifier.remove(sessionID, conn)
			h.log.Info("event stream closed", zap.String("session", sessionID))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
