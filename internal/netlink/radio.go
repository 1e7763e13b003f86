package netlink

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/myconode/myconode/internal/logging"
	"go.uber.org/zap"
)

// CommandRunner runs an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// nmcliTimeout bounds each nmcli invocation so a wedged NetworkManager
// cannot stall IsConnected.
const nmcliTimeout = 5 * time.Second

// NMCLIRadio drives a Linux wireless interface through NetworkManager.
type NMCLIRadio struct {
	// Path to the nmcli binary. Defaults to "nmcli".
	Path string
	// Interface restricts the connect to one device (e.g., "wlan0").
	Interface string

	run CommandRunner
}

// NewNMCLIRadio returns a radio that shells out to nmcli.
func NewNMCLIRadio(iface string) *NMCLIRadio {
	return &NMCLIRadio{Path: "nmcli", Interface: iface, run: execRunner}
}

// SetRunner replaces the command runner. Tests use it to fake nmcli.
func (r *NMCLIRadio) SetRunner(run CommandRunner) {
	r.run = run
}

func (r *NMCLIRadio) exec(args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), nmcliTimeout)
	defer cancel()
	run := r.run
	if run == nil {
		run = execRunner
	}
	path := r.Path
	if path == "" {
		path = "nmcli"
	}
	return run(ctx, path, args...)
}

// Begin asks NetworkManager to join the network without waiting for the
// association to complete.
func (r *NMCLIRadio) Begin(network, secret string) error {
	args := []string{"--wait", "0", "device", "wifi", "connect", network}
	if secret != "" {
		args = append(args, "password", secret)
	}
	if r.Interface != "" {
		args = append(args, "ifname", r.Interface)
	}

	out, err := r.exec(args...)
	if err != nil {
		return fmt.Errorf("nmcli connect failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Connected reports whether NetworkManager's global state is "connected".
func (r *NMCLIRadio) Connected() bool {
	out, err := r.exec("-t", "-f", "STATE", "general")
	if err != nil {
		logging.Debug("nmcli status failed", zap.Error(err))
		return false
	}
	return strings.TrimSpace(string(out)) == "connected"
}

// LocalAddress returns the first IPv4 address of the configured interface.
func (r *NMCLIRadio) LocalAddress() string {
	if r.Interface == "" {
		return ""
	}
	out, err := r.exec("-t", "-g", "IP4.ADDRESS", "device", "show", r.Interface)
	if err != nil {
		return ""
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	addr, _, _ := strings.Cut(first, "/")
	return addr
}

// DefaultProbeAddress is dialled by HostRadio to decide whether the host
// has a working uplink.
const DefaultProbeAddress = "1.1.1.1:53"

// HostRadio is used when the operating system already manages the link.
// Begin is a no-op and Connected probes the uplink with a TCP dial.
type HostRadio struct {
	ProbeAddress string
	ProbeTimeout time.Duration

	dial func(network, address string, timeout time.Duration) (net.Conn, error)
}

// NewHostRadio returns a radio that probes addr (DefaultProbeAddress if empty).
func NewHostRadio(addr string) *HostRadio {
	if addr == "" {
		addr = DefaultProbeAddress
	}
	return &HostRadio{
		ProbeAddress: addr,
		ProbeTimeout: 2 * time.Second,
		dial:         net.DialTimeout,
	}
}

// Begin does nothing: the host network stack owns association.
func (r *HostRadio) Begin(network, secret string) error {
	return nil
}

// Connected dials the probe address.
func (r *HostRadio) Connected() bool {
	dial := r.dial
	if dial == nil {
		dial = net.DialTimeout
	}
	conn, err := dial("tcp", r.ProbeAddress, r.ProbeTimeout)
	if err != nil {
		logging.Debug("Uplink probe failed",
			zap.String("address", r.ProbeAddress),
			zap.Error(err),
		)
		return false
	}
	_ = conn.Close()
	return true
}

// LocalAddress returns the local side of a UDP socket routed to the probe
// address. No packet is sent.
func (r *HostRadio) LocalAddress() string {
	conn, err := net.Dial("udp", r.ProbeAddress)
	if err != nil {
		return ""
	}
	defer func() { _ = conn.Close() }()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return ""
}

// SimRadio is a deterministic radio simulator. It reports connected once
// Connected has been polled ConnectAfter times after Begin. A negative
// ConnectAfter never connects.
type SimRadio struct {
	ConnectAfter int
	Address      string
	BeginErr     error

	mu      sync.Mutex
	begun   bool
	polls   int
	network string
	dropped bool
}

// NewSimRadio returns a simulator that connects after n polls.
func NewSimRadio(n int) *SimRadio {
	return &SimRadio{ConnectAfter: n, Address: "192.168.4.2"}
}

// Begin records the network and resets the poll counter.
func (r *SimRadio) Begin(network, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begun = true
	r.polls = 0
	r.dropped = false
	r.network = network
	return r.BeginErr
}

// Connected counts the poll and reports the simulated status.
func (r *SimRadio) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.begun || r.dropped || r.ConnectAfter < 0 {
		return false
	}
	if r.polls >= r.ConnectAfter {
		return true
	}
	r.polls++
	return false
}

// LocalAddress returns Address once connected.
func (r *SimRadio) LocalAddress() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.begun || r.dropped || r.ConnectAfter < 0 || r.polls < r.ConnectAfter {
		return ""
	}
	return r.Address
}

// Drop simulates losing the association. The next Begin restores it.
func (r *SimRadio) Drop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped = true
}

// Network returns the last network passed to Begin.
func (r *SimRadio) Network() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.network
}
