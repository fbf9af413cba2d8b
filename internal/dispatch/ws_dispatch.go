package dispatch

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/carpool-matching/internal/models"
	"github.com/example/carpool-matching/internal/observability"
)

const writeWait = 5 * time.Second

var ErrNoSession = errors.New("no ws session")

// Conn is the part of a websocket connection the registry writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Update is the message pushed to a subscriber.
type Update struct {
	Name            string               `json:"name"`
	Recommendations []models.Participant `json:"recommendations"`
}

// WSSession is one subscribed participant.
type WSSession struct {
	conn Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conn.(*websocket.Conn); ok {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	}
	return s.conn.WriteJSON(v)
}

// WSRegistry holds one session per participant name.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
	logger   *slog.Logger
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSRegistry{sessions: make(map[string]*WSSession), logger: logger}
}

// Add registers conn for name, closing any session it replaces.
func (r *WSRegistry) Add(name string, conn Conn) *WSSession {
	s := &WSSession{conn: conn}
	r.mu.Lock()
	old := r.sessions[name]
	r.sessions[name] = s
	r.mu.Unlock()
	if old != nil {
		_ = old.conn.Close()
	}
	return s
}

// Remove drops s if it is still the session registered for name.
func (r *WSRegistry) Remove(name string, s *WSSession) {
	r.mu.Lock()
	if cur, ok := r.sessions[name]; ok && cur == s {
		delete(r.sessions, name)
	}
	r.mu.Unlock()
	_ = s.conn.Close()
}

// Attach registers a live websocket, sends first when it is non-nil, and
// drains the connection until the peer goes away. It blocks for the life of
// the connection.
func (r *WSRegistry) Attach(name string, conn *websocket.Conn, first interface{}) {
	s := r.Add(name, conn)
	defer r.Remove(name, s)
	if first != nil {
		if err := s.Send(first); err != nil {
			r.logger.Warn("ws initial send failed", "name", name, "error", err)
			return
		}
	}
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Names lists subscribed participants in sorted order.
func (r *WSRegistry) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.sessions))
	for n := range r.sessions {
		out = append(out, n)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (r *WSRegistry) Offer(name string, u Update) error {
	r.mu.RLock()
	s, ok := r.sessions[name]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if err := s.Send(u); err != nil {
		r.logger.Warn("ws send failed", "name", name, "error", err)
		return err
	}
	return nil
}

// Push sends each subscriber its refreshed recommendations.
func (r *WSRegistry) Push(recs map[string][]models.Participant) (sent int) {
	for name, list := range recs {
		if err := r.Offer(name, Update{Name: name, Recommendations: list}); err != nil {
			observability.PushesTotal.WithLabelValues("error").Inc()
			continue
		}
		observability.PushesTotal.WithLabelValues("ok").Inc()
		sent++
	}
	return sent
}
