package session

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"towerdefense/internal/auth"
	"towerdefense/internal/balance"
	"towerdefense/internal/config"
	"towerdefense/internal/td"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	ErrUnknownSpot     = errors.New("no such tower spot")
	ErrSpotTaken       = errors.New("tower spot already taken")
	ErrMatchInProgress = errors.New("match still in progress")
	ErrUnknownCommand  = errors.New("unknown command")
)

const (
	sendBuffer = 256
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	maxMessage = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Identifier resolves the signed-in player of a request.
type Identifier interface {
	Identify(r *http.Request) (string, error)
}

// Handler upgrades /ws/match requests into match sessions.
type Handler struct {
	Balance *balance.Source
	Auth    Identifier
	Scores  td.ScoreSubmitter

	TickInterval   time.Duration
	BroadcastEvery int
	SubmitTimeout  time.Duration

	mu     sync.Mutex
	active int
}

func NewHandler(src *balance.Source, id Identifier, scores td.ScoreSubmitter) *Handler {
	return &Handler{
		Balance:        src,
		Auth:           id,
		Scores:         scores,
		TickInterval:   config.TickInterval,
		BroadcastEvery: config.BroadcastEvery,
		SubmitTimeout:  config.SubmitTimeout,
	}
}

// Active is the number of connected sessions.
func (h *Handler) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

func (h *Handler) track(delta int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active += delta
	return h.active
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	player := td.Player{Name: r.URL.Query().Get("name")}
	if player.Name == "" {
		player.Name = auth.Username(r)
	}
	if h.Auth != nil {
		if uid, err := h.Auth.Identify(r); err == nil {
			player.UserID = uid
		}
	}
	codec := CodecFor(r.URL.Query().Get("codec"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[SESSION] upgrade:", err)
		return
	}

	s, err := h.newSession(conn, codec, player)
	if err != nil {
		log.Println("[SESSION]", err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "match unavailable"))
		conn.Close()
		return
	}

	n := h.track(1)
	log.Printf("[SESSION] %s connected as %q (%s), %d active", s.ID, player.Name, codec.Name(), n)

	go s.writePump()
	go s.run(h.TickInterval, h.BroadcastEvery)
	s.readPump()

	n = h.track(-1)
	log.Printf("[SESSION] %s disconnected, %d active", s.ID, n)
}

// Session is one browser tab playing one match at a time. Only the run
// goroutine touches the match.
type Session struct {
	ID string

	conn   *websocket.Conn
	codec  Codec
	player td.Player

	src           *balance.Source
	scores        td.ScoreSubmitter
	submitTimeout time.Duration

	cfg      *balance.Config
	match    *td.Match
	occupied map[int]bool

	// hud and events are filled by the match during a tick or command and
	// flushed right after it.
	hud    *td.HUD
	events []td.Event

	send      chan []byte
	commands  chan Command
	submitted chan td.SubmitResult
	done      chan struct{}
	closeOnce sync.Once
}

func (h *Handler) newSession(conn *websocket.Conn, codec Codec, player td.Player) (*Session, error) {
	s := &Session{
		ID:            "sess_" + uuid.NewString(),
		conn:          conn,
		codec:         codec,
		player:        player,
		src:           h.Balance,
		scores:        h.Scores,
		submitTimeout: h.SubmitTimeout,
		send:          make(chan []byte, sendBuffer),
		commands:      make(chan Command, 16),
		submitted:     make(chan td.SubmitResult, 1),
		done:          make(chan struct{}),
	}
	if err := s.newMatch(); err != nil {
		return nil, err
	}
	return s, nil
}

// newMatch starts over on the current balance table and greets the client.
func (s *Session) newMatch() error {
	cfg := s.src.Current()
	m, err := td.NewMatch(cfg, td.Options{
		Player:        s.player,
		HUD:           td.HUDFunc(s.queueHUD),
		Events:        td.EventFunc(s.queueEvent),
		Scores:        s.scores,
		Submitted:     s.submitted,
		SubmitTimeout: s.submitTimeout,
	})
	if err != nil {
		return fmt.Errorf("new match: %w", err)
	}
	s.cfg = cfg
	s.match = m
	s.occupied = make(map[int]bool)
	s.hud = nil
	s.events = nil
	s.sendWelcome()
	return nil
}

func (s *Session) queueHUD(h td.HUD) {
	s.hud = &h
}

func (s *Session) queueEvent(e td.Event) {
	s.events = append(s.events, e)
}

func (s *Session) sendWelcome() {
	spots := make([]SpotView, len(s.cfg.Spots))
	for i, p := range s.cfg.Spots {
		spots[i] = SpotView{Index: i, X: p.X, Y: p.Y, Taken: s.occupied[i]}
	}
	towers := make([]TowerOffer, 0, len(balance.TowerKinds))
	for _, kind := range balance.TowerKinds {
		def, _ := s.cfg.Tower(kind)
		towers = append(towers, TowerOffer{
			Kind:       string(kind),
			Cost:       def.Cost,
			Damage:     def.Damage,
			Projectile: string(def.Projectile),
		})
	}

	s.enqueue(welcomeMsg{
		Type:      "welcome",
		SessionID: s.ID,
		MatchID:   s.match.ID,
		Username:  s.player.Name,
		Codec:     s.codec.Name(),
		Width:     config.BaseWidth,
		Height:    config.BaseHeight,
		TickRate:  config.TickRate,
		Path:      s.cfg.Path,
		Spots:     spots,
		Towers:    towers,
		Waves:     len(s.cfg.Waves),
		HUD:       s.match.HUD(),
	})
}

// step advances the match by one frame and sends what changed.
func (s *Session) step() {
	wasOver := s.match.Over()
	s.match.Tick()
	s.flush()
	if !wasOver && s.match.Over() {
		s.sendResult()
	}
}

func (s *Session) flush() {
	for _, e := range s.events {
		s.enqueue(eventMsg{Type: "event", Event: e})
	}
	s.events = s.events[:0]
	if s.hud != nil {
		s.enqueue(hudMsg{Type: "hud", HUD: *s.hud})
		s.hud = nil
	}
}

func (s *Session) sendState() {
	s.enqueue(stateMsg{Type: "state", State: s.match.Snapshot()})
}

func (s *Session) sendResult() {
	res := s.match.Result()
	kind := "game_over"
	if res.Outcome == td.OutcomeVictory {
		kind = "victory"
	}
	s.sendState()
	s.enqueue(resultMsg{Type: kind, Result: res})
}

func (s *Session) reportSubmission(res td.SubmitResult) {
	msg := scoreMsg{Type: "score_submitted", MatchID: res.MatchID, Score: res.Score, OK: res.Err == nil}
	if res.Err != nil {
		msg.Error = "could not save score"
	}
	s.enqueue(msg)
}

// enqueue encodes v for the write pump. A client that cannot keep up
// loses frames rather than stalling the match.
func (s *Session) enqueue(v any) {
	data, err := s.codec.Encode(v)
	if err != nil {
		log.Printf("[SESSION] %s encode: %v", s.ID, err)
		return
	}
	select {
	case s.send <- data:
	default:
		log.Printf("[SESSION] %s send buffer full, dropping frame", s.ID)
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Session) run(tickInterval time.Duration, broadcastEvery int) {
	if broadcastEvery < 1 {
		broadcastEvery = 1
	}
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	frames := 0
	for {
		select {
		case <-s.done:
			return
		case cmd := <-s.commands:
			s.apply(cmd)
		case res := <-s.submitted:
			s.reportSubmission(res)
		case <-ticker.C:
			s.step()
			frames++
			if frames%broadcastEvery == 0 && !s.match.Paused() && !s.match.Over() {
				s.sendState()
			}
		}
	}
}

func (s *Session) readPump() {
	defer func() {
		s.close()
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessage)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[SESSION] %s read: %v", s.ID, err)
			}
			return
		}

		var cmd Command
		if err := s.codec.Decode(message, &cmd); err != nil {
			log.Printf("[SESSION] %s bad command: %v", s.ID, err)
			continue
		}
		select {
		case s.commands <- cmd:
		case <-s.done:
			return
		}
	}
}

func (s *Session) writePump() {
	ping := time.NewTicker(pongWait * 9 / 10)
	defer func() {
		ping.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(s.codec.FrameType(), msg); err != nil {
				s.close()
				return
			}
		case <-ping.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
