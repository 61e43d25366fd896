package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ranchsim/server/internal/core/event"
	"github.com/ranchsim/server/internal/protocol"
	"go.uber.org/zap"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return m
}

func waitClients(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", s.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestObserverStream(t *testing.T) {
	bus := event.NewBus()
	s := NewServer("run-1", 100, bus, zap.NewNop())

	// One animal exists before the observer joins.
	event.Emit(bus, event.LivestockSpawned{Tick: 1, Entity: 5, Sprite: "pig.png", X: 1, Y: 2, Balance: 90})
	bus.Flush()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	conn := dial(t, srv)

	snap := readMsg(t, conn)
	if snap["type"] != protocol.TypeSnapshot || snap["run_id"] != "run-1" || snap["balance"] != 90.0 {
		t.Fatalf("snapshot = %v", snap)
	}
	if ls := snap["livestock"].([]any); len(ls) != 1 {
		t.Fatalf("snapshot livestock = %v", ls)
	}
	waitClients(t, s, 1)

	event.Emit(bus, event.LivestockSpawned{Tick: 2, Entity: 6, Sprite: "pig.png", Balance: 80})
	event.Emit(bus, event.LivestockSold{Tick: 2, Entity: 5, Payout: 15, Balance: 95})
	bus.Flush()
	s.BroadcastFrame(protocol.NewFrame(2, 95, &protocol.Transform{Entity: 1}, []protocol.Transform{{Entity: 6, X: 3, Y: 4}}))

	for _, want := range []string{protocol.TypeSpawn, protocol.TypeDespawn, protocol.TypeFrame} {
		if m := readMsg(t, conn); m["type"] != want {
			t.Fatalf("got %v, want %s", m, want)
		}
	}

	resp, err := http.Get(srv.URL + "/bootstrap")
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer resp.Body.Close()
	var boot protocol.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&boot); err != nil {
		t.Fatalf("decode bootstrap: %v", err)
	}
	if boot.RunID != "run-1" || boot.Tick != 2 || boot.Balance != 95 || boot.Livestock != 1 {
		t.Fatalf("bootstrap = %+v", boot)
	}

	conn.Close()
	waitClients(t, s, 0)
}

func TestSlowObserverDropsMessages(t *testing.T) {
	s := NewServer("run", 0, event.NewBus(), zap.NewNop())
	c, err := s.join()
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	defer s.leave(c.id)

	for i := 0; i < clientQueue+10; i++ {
		s.BroadcastFrame(protocol.NewFrame(uint64(i), 0, nil, nil))
	}
	// The snapshot took one slot.
	if got := s.Dropped(); got != 11 {
		t.Fatalf("dropped = %d, want 11", got)
	}
}

func TestBootstrapRejectsPost(t *testing.T) {
	s := NewServer("run", 0, event.NewBus(), zap.NewNop())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bootstrap", nil)
	req.RemoteAddr = "127.0.0.1:5000"
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRemoteObserverForbidden(t *testing.T) {
	s := NewServer("run", 0, event.NewBus(), zap.NewNop())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/bootstrap", nil)
	req.RemoteAddr = "203.0.113.9:5000"
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequireLoopback(t *testing.T) {
	for addr, ok := range map[string]bool{
		"127.0.0.1:7070": true,
		"localhost:7070": true,
		"[::1]:7070":     true,
		"0.0.0.0:7070":   false,
		"10.0.0.4:7070":  false,
		"nonsense":       false,
	} {
		if err := requireLoopback(addr); (err == nil) != ok {
			t.Errorf("requireLoopback(%q) = %v", addr, err)
		}
	}
}

func TestForeignOriginRejected(t *testing.T) {
	s := NewServer("run", 0, event.NewBus(), zap.NewNop())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	header := http.Header{"Origin": []string{"https://attacker.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		conn.Close()
		t.Fatal("foreign origin accepted")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("response = %v, want 403", resp)
	}

	header = http.Header{"Origin": []string{"http://localhost:5173"}}
	conn, _, err = websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("loopback origin refused: %v", err)
	}
	conn.Close()
}

func TestIsLoopbackOrigin(t *testing.T) {
	for origin, ok := range map[string]bool{
		"":                         true,
		"http://127.0.0.1:8080":    true,
		"http://localhost":         true,
		"http://[::1]:3000":        true,
		"https://attacker.example": false,
		"http://192.168.1.10:8080": false,
		"null":                     false,
	} {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		if got := isLoopbackOrigin(r); got != ok {
			t.Errorf("isLoopbackOrigin(%q) = %v, want %v", origin, got, ok)
		}
	}
}
