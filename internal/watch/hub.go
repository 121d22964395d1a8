package watch

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tsparse/tsparse/internal/compiler/ast"
	"github.com/tsparse/tsparse/internal/compiler/cache"
	"github.com/tsparse/tsparse/internal/compiler/errors"
	"github.com/tsparse/tsparse/internal/compiler/grammar"
)

// Event types sent to subscribers
const (
	EventParsing = "parsing"
	EventParsed  = "parsed"
	EventFailed  = "failed"
)

// Event is a message broadcast to websocket subscribers
type Event struct {
	Type      string       `json:"type"`
	Session   string       `json:"session,omitempty"`
	Timestamp int64        `json:"timestamp"` // Unix timestamp
	Files     []string     `json:"files,omitempty"`
	Results   []FileReport `json:"results,omitempty"`
	Duration  float64      `json:"duration,omitempty"` // Milliseconds
}

// FileReport is the outcome of parsing one file
type FileReport struct {
	Path string `json:"path"`
	// Expressions holds the S-expression form of each top-level expression.
	// It is empty, not null, for a file that parsed to nothing.
	Expressions []string              `json:"expressions"`
	Cached      bool                  `json:"cached,omitempty"`
	Error       *errors.CompilerError `json:"error,omitempty"`
	// Problem describes a failure that is not a parse error, e.g. an I/O error
	Problem string `json:"problem,omitempty"`
}

// NewFileReport converts a parse result into its wire form
func NewFileReport(r *cache.ParseResult) FileReport {
	report := FileReport{Path: r.Path, Cached: r.Cached}

	switch err := r.Err.(type) {
	case nil:
		report.Expressions = ExpressionStrings(r.Exprs)
	case *grammar.Failure:
		report.Error = errors.FromFailure(err).WithFile(r.Path)
	default:
		report.Problem = err.Error()
	}

	return report
}

// ExpressionStrings is the S-expression form of exprs
func ExpressionStrings(exprs []ast.ExprNode) []string {
	out := make([]string, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, e.String())
	}
	return out
}

const (
	// Time allowed to write a message to a subscriber
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from a subscriber
	pongWait = 60 * time.Second

	// Subscribers only send control frames
	maxMessageSize = 512

	// Events queued per subscriber before it is considered stalled
	sendBuffer = 64
)

// subscriber is one websocket connection and its outbound queue. Only the
// subscriber's write pump writes to conn.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub manages websocket subscribers and fans events out to them
type Hub struct {
	subscribers map[*subscriber]bool
	broadcast   chan *Event
	register    chan *subscriber
	unregister  chan *subscriber
	done        chan struct{}
	closeOnce   sync.Once
	mutex       sync.RWMutex
	upgrader    websocket.Upgrader
	logger      *zap.Logger

	pongWait   time.Duration
	pingPeriod time.Duration
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithKeepalive sets how long a subscriber may go without answering a ping.
// Pings are sent at nine tenths of that interval.
func WithKeepalive(wait time.Duration) HubOption {
	return func(h *Hub) {
		h.pongWait = wait
		h.pingPeriod = (wait * 9) / 10
	}
}

// NewHub creates a hub and starts its event loop
func NewHub(logger *zap.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Hub{
		subscribers: make(map[*subscriber]bool),
		broadcast:   make(chan *Event, 256),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		done:        make(chan struct{}),
		logger:      logger.Named("hub"),
		upgrader: websocket.Upgrader{
			CheckOrigin:     localOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	WithKeepalive(pongWait)(h)
	for _, opt := range opts {
		opt(h)
	}

	go h.run()

	return h
}

// localOrigin accepts same-origin requests and pages served from localhost
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, prefix := range []string{"http://localhost", "https://localhost", "http://127.0.0.1", "https://127.0.0.1"} {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return

		case s := <-h.register:
			h.mutex.Lock()
			h.subscribers[s] = true
			count := len(h.subscribers)
			h.mutex.Unlock()
			h.logger.Debug("subscriber connected", zap.Int("total", count))

		case s := <-h.unregister:
			h.mutex.Lock()
			h.drop(s)
			count := len(h.subscribers)
			h.mutex.Unlock()
			h.logger.Debug("subscriber disconnected", zap.Int("total", count))

		case event := <-h.broadcast:
			h.sendToAll(event)
		}
	}
}

// drop removes s and closes its queue, which stops its write pump. The
// caller holds the write lock.
func (h *Hub) drop(s *subscriber) {
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.send)
	}
}

// sendToAll queues event for every subscriber. A subscriber whose queue is
// full is disconnected.
func (h *Hub) sendToAll(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal event", zap.Error(err))
		return
	}

	h.mutex.RLock()
	var stalled []*subscriber
	for s := range h.subscribers {
		select {
		case s.send <- data:
		default:
			stalled = append(stalled, s)
		}
	}
	h.mutex.RUnlock()

	if len(stalled) > 0 {
		h.mutex.Lock()
		for _, s := range stalled {
			h.logger.Debug("dropping stalled subscriber")
			h.drop(s)
		}
		h.mutex.Unlock()
	}
}

// HandleWebSocket upgrades HTTP connections to websocket subscriptions
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade connection", zap.Error(err))
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- s:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(s)
	go h.readPump(s)
}

// writePump delivers queued events and keeps the connection alive with pings
func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Debug("send event", zap.Error(err))
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the client side of the socket so pongs and close frames
// are processed, and unregisters the subscriber when the connection ends.
func (h *Hub) readPump(s *subscriber) {
	defer func() {
		select {
		case h.unregister <- s:
		case <-h.done:
		}
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket error", zap.Error(err))
			}
			return
		}
	}
}

// Publish queues an event for every subscriber. Events published after
// Close are dropped.
func (h *Hub) Publish(event *Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	select {
	case h.broadcast <- event:
	case <-h.done:
	}
}

// NotifyParsing announces that files are being parsed
func (h *Hub) NotifyParsing(session string, files []string) {
	h.Publish(&Event{Type: EventParsing, Session: session, Files: files})
}

// NotifyResults publishes the outcome of a batch. The event type is
// EventFailed if any file failed.
func (h *Hub) NotifyResults(session string, results []*cache.ParseResult, duration time.Duration) {
	event := &Event{
		Type:     EventParsed,
		Session:  session,
		Duration: float64(duration.Milliseconds()),
		Results:  make([]FileReport, 0, len(results)),
	}
	for _, r := range results {
		if r.Err != nil {
			event.Type = EventFailed
		}
		event.Results = append(event.Results, NewFileReport(r))
	}
	h.Publish(event)
}

// ConnectionCount returns the number of active subscribers
func (h *Hub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber and stops the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.mutex.Lock()
		defer h.mutex.Unlock()
		for s := range h.subscribers {
			h.drop(s)
			s.conn.Close()
		}
	})
}
