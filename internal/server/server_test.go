package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/myconode/myconode/internal/operator"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d, want 101", resp.StatusCode)
	}
	return conn
}

func waitForClients(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.GetActiveConnections() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", s.GetActiveConnections(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) operator.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev operator.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return ev
}

func TestServer_BroadcastsEvents(t *testing.T) {
	s := New(Config{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	a := dial(t, srv)
	defer a.Close()
	b := dial(t, srv)
	defer b.Close()
	waitForClients(t, s, 2)

	s.Notify(operator.NewEvent(operator.KindCycle, "Cycle 1 complete", map[string]any{"linked": true}))

	for _, conn := range []*websocket.Conn{a, b} {
		ev := readEvent(t, conn)
		if ev.Kind != operator.KindCycle || ev.Message != "Cycle 1 complete" {
			t.Errorf("event = %+v", ev)
		}
		if ev.Fields["linked"] != true {
			t.Errorf("fields = %v", ev.Fields)
		}
	}
}

func TestServer_NewClientGetsLastEvent(t *testing.T) {
	s := New(Config{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	s.Notify(operator.NewEvent(operator.KindLinkConnected, "Connected to grow-ap", nil))

	conn := dial(t, srv)
	defer conn.Close()

	ev := readEvent(t, conn)
	if ev.Kind != operator.KindLinkConnected {
		t.Errorf("first event kind = %q, want %q", ev.Kind, operator.KindLinkConnected)
	}
}

func TestServer_ClientDisconnectIsNoticed(t *testing.T) {
	s := New(Config{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, s, 1)

	_ = conn.Close()
	waitForClients(t, s, 0)

	// Broadcasting with no clients must not panic or block.
	s.Notify(operator.NewEvent(operator.KindAlert, "CO2 high", nil))
}

func TestServer_Healthz(t *testing.T) {
	s := New(Config{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	s.Notify(operator.NewEvent(operator.KindAlert, "Humidity 72.0% is below 80.0%", nil))

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatal(err)
	}
	if h.Status != "ok" || h.Events != 1 || h.Clients != 0 {
		t.Errorf("health = %+v", h)
	}
	if h.LastEvent == nil || h.LastEvent.Kind != operator.KindAlert {
		t.Errorf("last event = %+v", h.LastEvent)
	}
}

func TestServer_HealthzRejectsPost(t *testing.T) {
	s := New(Config{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/healthz", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	s := New(Config{Listen: "127.0.0.1:0"})
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.Port() == 0 {
		t.Fatal("Port() should be set after Start")
	}

	url := "ws://127.0.0.1:" + strconv.Itoa(s.Port()) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	waitForClients(t, s, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if s.GetActiveConnections() != 0 {
		t.Error("Shutdown should drop every client")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("client should observe the connection closing")
	}
}
