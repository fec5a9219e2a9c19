package ws

import (
	"encoding/json"
	"sync"
	"time"

	"finbot/internal/domain/models"
	applogger "finbot/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// session is one connected client subscribed to a single symbol.
// Writes are serialized with the session mutex since gorilla conns
// allow only one concurrent writer.
type session struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) sendJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *session) sendRaw(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub tracks sessions per symbol and fans snapshots out to them.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*session // symbol -> session id -> session
	log      *applogger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *applogger.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[string]*session),
		log:      log,
	}
}

// Register adds a connection under a symbol and returns the session id.
func (h *Hub) Register(symbol string, conn *websocket.Conn) string {
	s := &session{id: uuid.NewString(), conn: conn}

	h.mu.Lock()
	bySymbol, ok := h.sessions[symbol]
	if !ok {
		bySymbol = make(map[string]*session)
		h.sessions[symbol] = bySymbol
	}
	bySymbol[s.id] = s
	count := len(bySymbol)
	h.mu.Unlock()

	h.log.Info("ws session registered",
		applogger.String("symbol", symbol),
		applogger.String("session", s.id),
		applogger.Int("sessions", count),
	)
	return s.id
}

// Unregister removes a session. Safe to call twice.
func (h *Hub) Unregister(symbol, sessionID string) {
	h.mu.Lock()
	if bySymbol, ok := h.sessions[symbol]; ok {
		delete(bySymbol, sessionID)
		if len(bySymbol) == 0 {
			delete(h.sessions, symbol)
		}
	}
	h.mu.Unlock()

	h.log.Info("ws session unregistered",
		applogger.String("symbol", symbol),
		applogger.String("session", sessionID),
	)
}

// HasSubscribers reports whether any session watches the symbol.
func (h *Hub) HasSubscribers(symbol string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[symbol]) > 0
}

// SessionCount returns the number of sessions for a symbol.
func (h *Hub) SessionCount(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[symbol])
}

// Broadcast sends a snapshot to every session watching the symbol and
// returns how many sends succeeded. Failed sessions are dropped.
func (h *Hub) Broadcast(symbol string, snapshot *models.MarketSnapshot) int {
	data, err := json.Marshal(snapshot)
	if err != nil {
		h.log.Error("snapshot marshal failed",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return 0
	}

	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions[symbol]))
	for _, s := range h.sessions[symbol] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	sent := 0
	for _, s := range targets {
		if err := s.sendRaw(data); err != nil {
			h.log.Warn("ws send failed, dropping session",
				applogger.String("symbol", symbol),
				applogger.String("session", s.id),
				applogger.Error(err),
			)
			h.Unregister(symbol, s.id)
			_ = s.conn.Close()
			continue
		}
		sent++
	}
	return sent
}

// CloseAll closes every session and clears the registry. Called on
// shutdown so clients receive a close frame instead of a dropped
// connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]map[string]*session)
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	closed := 0
	for _, bySymbol := range sessions {
		for _, s := range bySymbol {
			if s.conn == nil {
				continue
			}
			s.mu.Lock()
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			_ = s.conn.Close()
			s.mu.Unlock()
			closed++
		}
	}
	if closed > 0 {
		h.log.Info("ws sessions closed", applogger.Int("sessions", closed))
	}
}

// Send delivers a snapshot to one session.
func (h *Hub) Send(symbol, sessionID string, snapshot *models.MarketSnapshot) error {
	h.mu.RLock()
	s := h.sessions[symbol][sessionID]
	h.mu.RUnlock()
	if s == nil {
		return nil
	}
	return s.sendJSON(snapshot)
}

// SendError delivers an error frame to one session.
func (h *Hub) SendError(symbol, sessionID, message string) error {
	h.mu.RLock()
	s := h.sessions[symbol][sessionID]
	h.mu.RUnlock()
	if s == nil {
		return nil
	}
	return s.sendJSON(map[string]string{"error": message})
}
