package node

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/myconode/myconode/internal/actuators"
	"github.com/myconode/myconode/internal/agent"
	"github.com/myconode/myconode/internal/config"
	"github.com/myconode/myconode/internal/discovery"
	"github.com/myconode/myconode/internal/logging"
	"github.com/myconode/myconode/internal/netlink"
	"github.com/myconode/myconode/internal/operator"
	"github.com/myconode/myconode/internal/remotesync"
	"github.com/myconode/myconode/internal/robotarm"
	"github.com/myconode/myconode/internal/sensors"
	"go.uber.org/zap"
)

// findStore is replaced in tests.
var findStore = discovery.FindStore

// Node is a fully wired agent and the parts it was built from.
type Node struct {
	Config    config.Config
	Radio     netlink.Radio
	Link      *netlink.Link
	Client    *remotesync.Client
	Sensors   sensors.Sensors
	Actuators *actuators.Controller
	Arm       robotarm.Arm
	Agent     *agent.Agent

	closers []func() error
}

// Build wires a node from cfg. It joins the network first, since store
// discovery needs the link, so it blocks for up to the connect timeout.
// A link that stays down is not an error: the agent keeps controlling the
// climate locally and reconnects on later cycles.
func Build(ctx context.Context, cfg config.Config, notifier operator.Notifier) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if notifier == nil {
		notifier = operator.Nop{}
	}

	n := &Node{Config: cfg}

	radio, err := NewRadio(cfg.Link)
	if err != nil {
		return nil, err
	}
	n.Radio = radio
	n.Link = netlink.New(radio,
		netlink.WithPollInterval(cfg.Link.PollInterval()),
		netlink.WithNotifier(notifier),
	)
	n.Link.Connect(Credentials(cfg.Link))

	endpoint, err := ResolveEndpoint(ctx, cfg.Remote, n.Link.IsConnected())
	if err != nil {
		return nil, err
	}
	client, err := remotesync.NewClient(endpoint, n.Link)
	if err != nil {
		return nil, fmt.Errorf("invalid store endpoint: %w", err)
	}
	client.SetTimeout(cfg.Remote.RequestTimeout())
	n.Client = client

	s, closer, err := NewSensors(cfg.Sensors)
	if err != nil {
		return nil, err
	}
	n.Sensors = s
	if closer != nil {
		n.closers = append(n.closers, closer)
	}

	n.Actuators = actuators.NewController(
		actuators.LogOutputs{FrequencyHz: cfg.Actuators.PWMFrequencyHz},
		cfg.Actuators.PWMResolutionBits,
	)

	opts := []agent.Option{agent.WithNotifier(notifier)}
	if cfg.RobotArm.Enabled {
		n.Arm = robotarm.NewStub(cfg.RobotArm.MoveDelay())
		opts = append(opts, agent.WithArm(n.Arm))
	}

	n.Agent = agent.New(n.Link, n.Client, n.Sensors, n.Actuators, agent.Options{
		Credentials: Credentials(cfg.Link),
		Policy:      Policy(cfg.Control),
		Interval:    cfg.Agent.Interval(),
		Reconnect:   cfg.Agent.Reconnect,
		History:     cfg.Agent.History,
		Alerts:      cfg.Agent.Alerts,
		Commands:    cfg.Agent.Commands,
	}, opts...)

	logging.Info("Node built",
		zap.String("link_driver", cfg.Link.Driver),
		zap.String("sensor_driver", cfg.Sensors.Driver),
		zap.String("store", client.Endpoint().Host),
		zap.Bool("linked", n.Link.IsConnected()),
	)
	return n, nil
}

// Close releases hardware connections.
func (n *Node) Close() error {
	var errs []error
	for _, c := range n.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Credentials converts the link section to connect credentials.
func Credentials(cfg config.LinkConfig) netlink.Credentials {
	return netlink.Credentials{
		NetworkName:    cfg.NetworkName,
		Secret:         cfg.Secret,
		ConnectTimeout: cfg.ConnectTimeout(),
	}
}

// NewRadio creates the radio driver named by cfg.Driver.
func NewRadio(cfg config.LinkConfig) (netlink.Radio, error) {
	switch cfg.Driver {
	case config.LinkDriverNMCLI:
		return netlink.NewNMCLIRadio(cfg.Interface), nil
	case config.LinkDriverHost:
		return netlink.NewHostRadio(cfg.ProbeAddress), nil
	case config.LinkDriverSimulated:
		return netlink.NewSimRadio(cfg.SimulatedConnectAfter), nil
	default:
		return nil, fmt.Errorf("unknown link driver %q", cfg.Driver)
	}
}

// NewSensors creates the sensor driver named by cfg.Driver. The returned
// close function is nil when the driver holds no connection.
func NewSensors(cfg config.SensorsConfig) (sensors.Sensors, func() error, error) {
	switch cfg.Driver {
	case config.SensorDriverSimulated:
		return sensors.NewSimulated(cfg.Seed), nil, nil

	case config.SensorDriverFixture:
		return fixture(cfg.Fixture), nil, nil

	case config.SensorDriverModbus:
		channels := make(map[sensors.Kind]sensors.Channel, len(cfg.Modbus.Channels))
		for name, ch := range cfg.Modbus.Channels {
			kind, err := sensors.ParseKind(name)
			if err != nil {
				return nil, nil, err
			}
			channels[kind] = sensors.Channel{
				Address: ch.Address,
				Scale:   ch.Scale,
				Signed:  ch.Signed,
				Input:   ch.Input,
			}
		}
		m, err := sensors.DialModbus(sensors.ModbusConfig{
			Endpoint: cfg.Modbus.Endpoint,
			UnitID:   cfg.Modbus.UnitID,
			Timeout:  time.Duration(cfg.Modbus.TimeoutMS) * time.Millisecond,
			Channels: channels,
			BaudRate: cfg.Modbus.BaudRate,
			DataBits: cfg.Modbus.DataBits,
			Parity:   cfg.Modbus.Parity,
			StopBits: cfg.Modbus.StopBits,
		}, sensors.NewSimulated(cfg.Seed))
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown sensor driver %q", cfg.Driver)
	}
}

// fixture builds a Fixture from config values. Kinds left out read the
// middle of their simulated range.
func fixture(values map[string]float64) sensors.Fixture {
	value := func(kind sensors.Kind) float64 {
		if v, ok := values[string(kind)]; ok {
			return v
		}
		lo, hi := sensors.SimulatedRange(kind)
		return (lo + hi) / 2
	}
	return sensors.Fixture{
		Temperature: value(sensors.Temperature),
		Humidity:    value(sensors.Humidity),
		CO2:         value(sensors.CO2),
		Moisture:    value(sensors.Moisture),
		PH:          value(sensors.PH),
	}
}

// Policy converts the control section to the agent's policy. Unknown
// kinds were rejected by Validate and are skipped here.
func Policy(cfg config.ControlConfig) agent.Policy {
	p := agent.Policy{
		Thresholds:    make(map[sensors.Kind]agent.Range, len(cfg.Thresholds)),
		LightsOnHour:  cfg.LightsOnHour,
		LightsOffHour: cfg.LightsOffHour,
		AutoIntensity: cfg.AutoIntensity,
	}
	for name, r := range cfg.Thresholds {
		kind, err := sensors.ParseKind(name)
		if err != nil {
			continue
		}
		p.Thresholds[kind] = agent.Range{Min: r.Min, Max: r.Max}
	}
	return p
}

// ResolveEndpoint returns the configured store, or browses mDNS for one
// when no host is configured and discovery is on. Discovery needs a link.
func ResolveEndpoint(ctx context.Context, cfg config.RemoteConfig, linked bool) (remotesync.Endpoint, error) {
	if cfg.Host != "" {
		return remotesync.Endpoint{Host: cfg.Host, Secret: cfg.Secret}, nil
	}
	if !cfg.Discover {
		return remotesync.Endpoint{}, errors.New("no store host configured and discovery is off")
	}
	if !linked {
		return remotesync.Endpoint{}, errors.New("store discovery needs a network link, and the link is down")
	}

	timeout := time.Duration(cfg.DiscoverTimeoutSec) * time.Second
	store, err := findStore(ctx, timeout)
	if err != nil {
		return remotesync.Endpoint{}, fmt.Errorf("store discovery failed: %w", err)
	}

	logging.Info("Using discovered store",
		zap.String("instance", store.Instance),
		zap.String("url", store.URL()),
	)
	return remotesync.Endpoint{Host: store.URL(), Secret: cfg.Secret}, nil
}
