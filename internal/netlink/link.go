package netlink

import (
	"fmt"
	"sync"
	"time"

	"github.com/myconode/myconode/internal/logging"
	"github.com/myconode/myconode/internal/operator"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often Connect re-checks the radio.
const DefaultPollInterval = 250 * time.Millisecond

// Credentials identify the access point to join.
type Credentials struct {
	NetworkName    string
	Secret         string
	ConnectTimeout time.Duration
}

// State is the last state reached by the connect state machine.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateTimedOut
)

// String returns a human-readable name for the state
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Radio is the driver for the wireless interface.
type Radio interface {
	// Begin starts associating with the named network. It must not block
	// until association completes.
	Begin(network, secret string) error
	// Connected reports the live link status from the driver.
	Connected() bool
	// LocalAddress returns the address assigned on the link, or "".
	LocalAddress() string
}

// Clock supplies time to the connect loop so tests can run it without
// real delays.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Option configures a Link.
type Option func(*Link)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(l *Link) { l.clock = c }
}

// WithPollInterval sets the interval between radio status checks.
func WithPollInterval(d time.Duration) Option {
	return func(l *Link) {
		if d > 0 {
			l.poll = d
		}
	}
}

// WithNotifier sets where connect progress is reported.
func WithNotifier(n operator.Notifier) Option {
	return func(l *Link) {
		if n != nil {
			l.notifier = n
		}
	}
}

// Link manages the node's wireless connection.
//
// Connect blocks its caller until the radio reports connected or the
// credentials' timeout elapses. IsConnected always asks the radio and never
// returns a cached value, so it is accurate even if the link drops between
// cycles.
type Link struct {
	radio    Radio
	clock    Clock
	poll     time.Duration
	notifier operator.Notifier

	mu    sync.Mutex
	state State
}

// New creates a link over the given radio.
func New(radio Radio, opts ...Option) *Link {
	l := &Link{
		radio:    radio,
		clock:    systemClock{},
		poll:     DefaultPollInterval,
		notifier: operator.Nop{},
		state:    StateDisconnected,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Connect joins the network named in creds, polling the radio every poll
// interval until it reports connected or ConnectTimeout has elapsed.
// It never returns an error: callers learn the outcome from IsConnected.
func (l *Link) Connect(creds Credentials) {
	l.setState(StateConnecting)

	timeoutMS := creds.ConnectTimeout.Milliseconds()
	l.notify(operator.KindLinkConnecting, fmt.Sprintf("Connecting to %s", creds.NetworkName), map[string]any{
		operator.FieldNetwork:   creds.NetworkName,
		operator.FieldTimeoutMS: timeoutMS,
	})

	if err := l.radio.Begin(creds.NetworkName, creds.Secret); err != nil {
		// The radio may already be associated, so keep polling.
		logging.Warn("Radio begin failed",
			zap.String("network", creds.NetworkName),
			zap.Error(err),
		)
		l.notify(operator.KindLinkBeginFailed, "Radio refused to start association", map[string]any{
			operator.FieldNetwork: creds.NetworkName,
			operator.FieldError:   err.Error(),
		})
	}

	start := l.clock.Now()
	connected := l.radio.Connected()
	for !connected && l.clock.Now().Sub(start) < creds.ConnectTimeout {
		l.clock.Sleep(l.poll)
		l.notify(operator.KindLinkProgress, fmt.Sprintf("Connecting to %s", creds.NetworkName), map[string]any{
			operator.FieldNetwork:   creds.NetworkName,
			operator.FieldElapsedMS: l.clock.Now().Sub(start).Milliseconds(),
			operator.FieldTimeoutMS: timeoutMS,
		})
		connected = l.radio.Connected()
	}

	elapsed := l.clock.Now().Sub(start)
	if connected {
		addr := l.radio.LocalAddress()
		l.setState(StateConnected)
		logging.LogLinkEvent(creds.NetworkName, "connected",
			zap.String("address", addr),
			zap.Duration("elapsed", elapsed),
		)
		l.notify(operator.KindLinkConnected, fmt.Sprintf("Connected to %s", creds.NetworkName), map[string]any{
			operator.FieldNetwork: creds.NetworkName,
			operator.FieldAddress: addr,
		})
		return
	}

	l.setState(StateTimedOut)
	logging.LogLinkEvent(creds.NetworkName, "connect_timeout",
		zap.Duration("elapsed", elapsed),
		zap.Duration("timeout", creds.ConnectTimeout),
	)
	l.notify(operator.KindLinkTimeout, fmt.Sprintf("Timed out connecting to %s", creds.NetworkName), map[string]any{
		operator.FieldNetwork:   creds.NetworkName,
		operator.FieldTimeoutMS: timeoutMS,
	})
}

// IsConnected queries the radio for the current link status.
// It is safe to call before Connect, in which case the radio decides.
func (l *Link) IsConnected() bool {
	if l == nil || l.radio == nil {
		return false
	}
	return l.radio.Connected()
}

// State returns the state the last Connect call ended in.
func (l *Link) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// LocalAddress returns the radio's current address.
func (l *Link) LocalAddress() string {
	return l.radio.LocalAddress()
}

func (l *Link) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

func (l *Link) notify(kind operator.Kind, msg string, fields map[string]any) {
	l.notifier.Notify(operator.Event{
		Kind:    kind,
		Time:    l.clock.Now(),
		Message: msg,
		Fields:  fields,
	})
}
