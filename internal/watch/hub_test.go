package watch

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tsparse/tsparse/internal/compiler/ast"
	"github.com/tsparse/tsparse/internal/compiler/cache"
	"github.com/tsparse/tsparse/internal/compiler/parser"
)

// subscribe connects a websocket client to h and waits for registration.
func subscribe(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(time.Second)
	for h.ConnectionCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

// waitForConnections polls until h has n subscribers or a second passes.
func waitForConnections(t *testing.T, h *Hub, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for h.ConnectionCount() != n && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.ConnectionCount() != n {
		t.Fatalf("Expected %d connections, got %d", n, h.ConnectionCount())
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	var event Event
	if err := json.Unmarshal(message, &event); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return event
}

func TestHub_HandleWebSocket(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()

	subscribe(t, h)

	if h.ConnectionCount() != 1 {
		t.Errorf("Expected 1 connection, got %d", h.ConnectionCount())
	}
}

func TestHub_NotifyParsing(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()
	conn := subscribe(t, h)

	h.NotifyParsing("s1", []string{"a.ts", "b.ts"})

	event := readEvent(t, conn)
	if event.Type != EventParsing {
		t.Errorf("Expected type %q, got %q", EventParsing, event.Type)
	}
	if event.Session != "s1" {
		t.Errorf("Expected session s1, got %q", event.Session)
	}
	if len(event.Files) != 2 {
		t.Errorf("Expected 2 files, got %d", len(event.Files))
	}
	if event.Timestamp == 0 {
		t.Error("Expected timestamp")
	}
}

func TestHub_NotifyResults(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()
	conn := subscribe(t, h)

	_, parseErr := parser.Parse("1 +")
	results := []*cache.ParseResult{
		{Path: "ok.ts", Exprs: []ast.ExprNode{&ast.NumberLiteral{Value: 1}}, Cached: true},
		{Path: "bad.ts", Err: parseErr},
		{Path: "gone.ts", Err: stderrors.New("open gone.ts: no such file or directory")},
	}
	h.NotifyResults("s1", results, 150*time.Millisecond)

	event := readEvent(t, conn)
	if event.Type != EventFailed {
		t.Errorf("Expected type %q, got %q", EventFailed, event.Type)
	}
	if event.Duration != 150 {
		t.Errorf("Expected duration 150ms, got %.0f", event.Duration)
	}
	if len(event.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(event.Results))
	}

	ok := event.Results[0]
	if len(ok.Expressions) != 1 || ok.Expressions[0] != "1" || !ok.Cached {
		t.Errorf("Unexpected report for ok.ts: %+v", ok)
	}

	bad := event.Results[1]
	if bad.Error == nil {
		t.Fatal("Expected error for bad.ts")
	}
	if bad.Error.Code != "SYN002" || bad.Error.File != "bad.ts" {
		t.Errorf("Unexpected error for bad.ts: %+v", bad.Error)
	}

	gone := event.Results[2]
	if !strings.Contains(gone.Problem, "no such file") {
		t.Errorf("Expected problem for gone.ts, got %+v", gone)
	}
}

func TestHub_AllParsedIsNotFailed(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()
	conn := subscribe(t, h)

	h.NotifyResults("s1", []*cache.ParseResult{{Path: "a.ts", Exprs: []ast.ExprNode{}}}, 0)

	event := readEvent(t, conn)
	if event.Type != EventParsed {
		t.Errorf("Expected type %q, got %q", EventParsed, event.Type)
	}
	if event.Results[0].Expressions == nil {
		t.Error("Expected empty, non-nil expressions for an empty file")
	}
}

func TestFileReport_EmptyFileIsNotAFailure(t *testing.T) {
	empty, err := json.Marshal(NewFileReport(&cache.ParseResult{Path: "a.ts", Exprs: []ast.ExprNode{}}))
	if err != nil {
		t.Fatalf("Failed to marshal report: %v", err)
	}
	if !strings.Contains(string(empty), `"expressions":[]`) {
		t.Errorf("Expected empty expressions, got %s", empty)
	}

	_, parseErr := parser.Parse("1 +")
	failed, err := json.Marshal(NewFileReport(&cache.ParseResult{Path: "b.ts", Err: parseErr}))
	if err != nil {
		t.Fatalf("Failed to marshal report: %v", err)
	}
	if !strings.Contains(string(failed), `"expressions":null`) {
		t.Errorf("Expected null expressions for a failure, got %s", failed)
	}
}

func TestHub_KeepsIdleSubscribersAlive(t *testing.T) {
	h := NewHub(nil, WithKeepalive(500*time.Millisecond))
	defer h.Close()
	conn := subscribe(t, h)

	// The client never sends; reading is enough to answer the hub's pings.
	events := make(chan Event, 1)
	go func() {
		defer close(events)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var event Event
			if json.Unmarshal(message, &event) == nil {
				events <- event
			}
		}
	}()

	time.Sleep(1200 * time.Millisecond)
	if h.ConnectionCount() != 1 {
		t.Fatalf("Expected idle subscriber to stay connected, got %d connections", h.ConnectionCount())
	}

	h.NotifyParsing("s1", nil)
	select {
	case event, ok := <-events:
		if !ok {
			t.Fatal("Connection closed before the event arrived")
		}
		if event.Type != EventParsing {
			t.Errorf("Expected type %q, got %q", EventParsing, event.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestHub_DropsUnresponsiveSubscribers(t *testing.T) {
	h := NewHub(nil, WithKeepalive(100*time.Millisecond))
	defer h.Close()

	// This client never reads, so the hub's pings go unanswered.
	subscribe(t, h)
	waitForConnections(t, h, 0)
}

func TestHub_StalledSubscriberDoesNotBlockOthers(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()
	conn := subscribe(t, h)

	stalled := &subscriber{send: make(chan []byte)}
	h.register <- stalled
	waitForConnections(t, h, 2)

	h.NotifyParsing("s1", []string{"a.ts"})

	event := readEvent(t, conn)
	if event.Type != EventParsing {
		t.Errorf("Expected type %q, got %q", EventParsing, event.Type)
	}
	waitForConnections(t, h, 1)
}

func TestHub_Close(t *testing.T) {
	h := NewHub(nil)
	subscribe(t, h)

	h.Close()
	h.Close()

	if h.ConnectionCount() != 0 {
		t.Errorf("Expected 0 connections after close, got %d", h.ConnectionCount())
	}

	// Publishing after Close must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			h.NotifyParsing("s1", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after Close")
	}
}

func TestLocalOrigin(t *testing.T) {
	tests := []struct {
		origin   string
		expected bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"https://127.0.0.1", true},
		{"https://example.com", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := localOrigin(r); got != tt.expected {
			t.Errorf("localOrigin(%q) = %v, expected %v", tt.origin, got, tt.expected)
		}
	}
}
