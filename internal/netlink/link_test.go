package netlink

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/myconode/myconode/internal/operator"
)

// fakeClock advances only when Sleep is called.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) elapsed(start time.Time) time.Duration { return c.now.Sub(start) }

func countKind(kinds []operator.Kind, k operator.Kind) int {
	n := 0
	for _, got := range kinds {
		if got == k {
			n++
		}
	}
	return n
}

func TestLink_IsConnectedBeforeConnect(t *testing.T) {
	link := New(NewSimRadio(0))
	if link.IsConnected() {
		t.Error("IsConnected() should be false before Connect")
	}
	if link.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", link.State())
	}

	var nilLink *Link
	if nilLink.IsConnected() {
		t.Error("nil link should report disconnected")
	}
}

func TestLink_ConnectTimesOut(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	var rec operator.Recorder
	radio := NewSimRadio(-1)

	link := New(radio, WithClock(clock), WithNotifier(&rec))
	link.Connect(Credentials{NetworkName: "ssid", Secret: "pwd", ConnectTimeout: 1000 * time.Millisecond})

	if link.IsConnected() {
		t.Error("IsConnected() should be false after a timed out connect")
	}
	if link.State() != StateTimedOut {
		t.Errorf("State() = %v, want timed_out", link.State())
	}
	if got := clock.elapsed(start); got > 1000*time.Millisecond+DefaultPollInterval {
		t.Errorf("Connect blocked for %v, want at most timeout plus one poll", got)
	}

	kinds := rec.Kinds()
	if kinds[0] != operator.KindLinkConnecting {
		t.Errorf("first event = %q, want connecting", kinds[0])
	}
	if kinds[len(kinds)-1] != operator.KindLinkTimeout {
		t.Errorf("last event = %q, want timeout", kinds[len(kinds)-1])
	}
	if got := countKind(kinds, operator.KindLinkProgress); got != len(clock.sleeps) {
		t.Errorf("progress events = %d, want one per poll (%d)", got, len(clock.sleeps))
	}
	for _, d := range clock.sleeps {
		if d != DefaultPollInterval {
			t.Errorf("slept %v, want %v", d, DefaultPollInterval)
		}
	}
	if radio.Network() != "ssid" {
		t.Errorf("radio began on %q, want ssid", radio.Network())
	}
}

func TestLink_ConnectSucceeds(t *testing.T) {
	clock := newFakeClock()
	var rec operator.Recorder

	link := New(NewSimRadio(3), WithClock(clock), WithNotifier(&rec))
	link.Connect(Credentials{NetworkName: "grow-ap", ConnectTimeout: 10 * time.Second})

	if !link.IsConnected() {
		t.Fatal("IsConnected() should be true")
	}
	if link.State() != StateConnected {
		t.Errorf("State() = %v, want connected", link.State())
	}
	if len(clock.sleeps) != 3 {
		t.Errorf("polled %d times, want 3", len(clock.sleeps))
	}

	events := rec.Events()
	last := events[len(events)-1]
	if last.Kind != operator.KindLinkConnected {
		t.Fatalf("last event = %q, want connected", last.Kind)
	}
	if last.Fields[operator.FieldAddress] != "192.168.4.2" {
		t.Errorf("address = %v, want 192.168.4.2", last.Fields[operator.FieldAddress])
	}
}

func TestLink_ZeroTimeoutChecksOnce(t *testing.T) {
	clock := newFakeClock()
	link := New(NewSimRadio(1), WithClock(clock))

	link.Connect(Credentials{NetworkName: "grow-ap"})

	if len(clock.sleeps) != 0 {
		t.Errorf("zero timeout should not sleep, slept %d times", len(clock.sleeps))
	}
	if link.State() != StateTimedOut {
		t.Errorf("State() = %v, want timed_out", link.State())
	}
}

func TestLink_BeginErrorKeepsPolling(t *testing.T) {
	clock := newFakeClock()
	var rec operator.Recorder
	radio := NewSimRadio(1)
	radio.BeginErr = errors.New("device busy")

	link := New(radio, WithClock(clock), WithNotifier(&rec))
	link.Connect(Credentials{NetworkName: "grow-ap", ConnectTimeout: time.Second})

	if !link.IsConnected() {
		t.Error("link should connect even though Begin reported an error")
	}
	if countKind(rec.Kinds(), operator.KindLinkBeginFailed) != 1 {
		t.Error("expected one begin_failed event")
	}
}

func TestLink_IsConnectedIsLive(t *testing.T) {
	radio := NewSimRadio(0)
	link := New(radio, WithClock(newFakeClock()))
	link.Connect(Credentials{NetworkName: "grow-ap", ConnectTimeout: time.Second})

	if !link.IsConnected() {
		t.Fatal("expected connected")
	}
	radio.Drop()
	if link.IsConnected() {
		t.Error("IsConnected() should follow the radio, not the last state")
	}
	if link.State() != StateConnected {
		t.Error("State() keeps the last connect outcome")
	}
}

func TestWithPollInterval(t *testing.T) {
	clock := newFakeClock()
	link := New(NewSimRadio(-1), WithClock(clock), WithPollInterval(100*time.Millisecond), WithPollInterval(0))
	link.Connect(Credentials{NetworkName: "n", ConnectTimeout: 300 * time.Millisecond})

	if len(clock.sleeps) != 3 {
		t.Errorf("polled %d times, want 3", len(clock.sleeps))
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateDisconnected: "disconnected",
		StateConnecting:   "connecting",
		StateConnected:    "connected",
		StateTimedOut:     "timed_out",
		State(9):          "State(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

func TestNMCLIRadio(t *testing.T) {
	var calls [][]string
	status := "disconnected"

	radio := NewNMCLIRadio("wlan0")
	radio.SetRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		switch {
		case len(args) > 3 && args[3] == "connect":
			return []byte("Device 'wlan0' successfully activated"), nil
		case args[len(args)-1] == "general":
			return []byte(status + "\n"), nil
		case strings.Contains(strings.Join(args, " "), "IP4.ADDRESS"):
			return []byte("10.0.0.12/24\n"), nil
		}
		return nil, errors.New("unexpected command")
	})

	if err := radio.Begin("grow-ap", "secret"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	want := "nmcli --wait 0 device wifi connect grow-ap password secret ifname wlan0"
	if got := strings.Join(calls[0], " "); got != want {
		t.Errorf("Begin ran %q, want %q", got, want)
	}

	if radio.Connected() {
		t.Error("Connected() should be false while nmcli reports disconnected")
	}
	status = "connected"
	if !radio.Connected() {
		t.Error("Connected() should be true once nmcli reports connected")
	}
	if got := radio.LocalAddress(); got != "10.0.0.12" {
		t.Errorf("LocalAddress() = %q, want 10.0.0.12", got)
	}
}

func TestNMCLIRadio_BeginFailure(t *testing.T) {
	radio := NewNMCLIRadio("")
	radio.SetRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("Error: No network with SSID 'x' found.\n"), errors.New("exit status 10")
	})

	err := radio.Begin("x", "")
	if err == nil {
		t.Fatal("Begin() should fail")
	}
	if !strings.Contains(err.Error(), "No network with SSID") {
		t.Errorf("error %q should include nmcli output", err)
	}
	if radio.LocalAddress() != "" {
		t.Error("LocalAddress() without an interface should be empty")
	}
}

type stubConn struct{ net.Conn }

func (stubConn) Close() error { return nil }

func TestHostRadio(t *testing.T) {
	radio := NewHostRadio("")
	if radio.ProbeAddress != DefaultProbeAddress {
		t.Errorf("ProbeAddress = %q, want default", radio.ProbeAddress)
	}

	var dialed string
	radio.dial = func(network, address string, timeout time.Duration) (net.Conn, error) {
		dialed = address
		return stubConn{}, nil
	}
	if !radio.Connected() {
		t.Error("Connected() should be true when the probe dials")
	}
	if dialed != DefaultProbeAddress {
		t.Errorf("dialed %q, want %q", dialed, DefaultProbeAddress)
	}

	radio.dial = func(network, address string, timeout time.Duration) (net.Conn, error) {
		return nil, errors.New("network is unreachable")
	}
	if radio.Connected() {
		t.Error("Connected() should be false when the probe fails")
	}
	if err := radio.Begin("ignored", "ignored"); err != nil {
		t.Errorf("Begin() error = %v", err)
	}
}
