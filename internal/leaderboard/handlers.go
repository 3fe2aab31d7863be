package leaderboard

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"towerdefense/internal/data"

	"github.com/gorilla/websocket"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type standings struct {
	Type    string       `json:"type"`
	Entries []data.Entry `json:"entries"`
}

// ParseLimit reads ?limit= with DefaultLimit when absent or malformed.
// "all" and non-positive values ask for every score, capped at MaxLimit.
func ParseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultLimit
	}
	if raw == "all" {
		return MaxLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultLimit
	}
	if n <= 0 || n > MaxLimit {
		return MaxLimit
	}
	return n
}

// TopHandler serves GET /api/leaderboard.
func (s *Service) TopHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entries, err := s.Top(ctx, ParseLimit(r))
	if err != nil {
		log.Println("[LEADERBOARD]", err)
		http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(standings{Type: "leaderboard", Entries: entries})
}

// HealthHandler serves GET /healthz with the store's reachability.
func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	connected := s.Ping(ctx) == nil
	status := http.StatusOK
	if !connected {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    http.StatusText(status),
		"connected": connected,
	})
}

type watcher struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// LiveHandler serves GET /ws/leaderboard: the standings now, and again
// after every new score.
func (s *Service) LiveHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[LEADERBOARD] upgrade:", err)
		return
	}

	c := &watcher{
		conn: conn,
		send: make(chan []byte, 8),
		done: make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	unsubscribe := s.Subscribe(ctx, ParseLimit(r), c.push)
	cancel()

	go c.writePump()
	c.readPump()
	unsubscribe()
}

func (c *watcher) push(entries []data.Entry) {
	msg, err := json.Marshal(standings{Type: "leaderboard", Entries: entries})
	if err != nil {
		log.Println("[LEADERBOARD] marshal:", err)
		return
	}
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		// Slow reader; it gets the next refresh.
	}
}

// readPump only watches for the peer going away.
func (c *watcher) readPump() {
	defer func() {
		close(c.done)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *watcher) writePump() {
	ping := time.NewTicker(pongWait * 9 / 10)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
