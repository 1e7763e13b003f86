package config

import "time"

// CurrentVersion is the config file format version.
const CurrentVersion = 1

// Link drivers
const (
	LinkDriverNMCLI     = "nmcli"
	LinkDriverHost      = "host"
	LinkDriverSimulated = "simulated"
)

// Sensor drivers
const (
	SensorDriverSimulated = "simulated"
	SensorDriverFixture   = "fixture"
	SensorDriverModbus    = "modbus"
)

// Config is the node's configuration file.
type Config struct {
	Version   int             `yaml:"version"`
	LogLevel  string          `yaml:"log_level,omitempty"` // debug, info, warn, error; empty is silent
	Link      LinkConfig      `yaml:"link"`
	Remote    RemoteConfig    `yaml:"remote"`
	Agent     AgentConfig     `yaml:"agent"`
	Control   ControlConfig   `yaml:"control"`
	Sensors   SensorsConfig   `yaml:"sensors"`
	Actuators ActuatorsConfig `yaml:"actuators"`
	RobotArm  RobotArmConfig  `yaml:"robot_arm"`
	Feed      FeedConfig      `yaml:"feed"`
}

// LinkConfig selects the radio driver and the access point to join.
type LinkConfig struct {
	Driver                string `yaml:"driver"`
	NetworkName           string `yaml:"network_name,omitempty"`
	Secret                string `yaml:"secret,omitempty"`
	Interface             string `yaml:"interface,omitempty"`     // nmcli only
	ProbeAddress          string `yaml:"probe_address,omitempty"` // host only
	ConnectTimeoutMS      int    `yaml:"connect_timeout_ms"`
	PollIntervalMS        int    `yaml:"poll_interval_ms"`
	SimulatedConnectAfter int    `yaml:"simulated_connect_after"` // polls before the simulator connects; negative never does
}

// ConnectTimeout returns the connect timeout as a duration.
func (l LinkConfig) ConnectTimeout() time.Duration {
	return time.Duration(l.ConnectTimeoutMS) * time.Millisecond
}

// PollInterval returns the connect poll interval as a duration.
func (l LinkConfig) PollInterval() time.Duration {
	return time.Duration(l.PollIntervalMS) * time.Millisecond
}

// RemoteConfig locates the document store.
type RemoteConfig struct {
	Host               string `yaml:"host,omitempty"` // e.g., https://grow-1234.example.com
	Secret             string `yaml:"secret,omitempty"`
	RequestTimeoutMS   int    `yaml:"request_timeout_ms"` // 0 disables the timeout
	Discover           bool   `yaml:"discover"`           // browse mDNS when host is empty
	DiscoverTimeoutSec int    `yaml:"discover_timeout_seconds"`
}

// RequestTimeout returns the HTTP request timeout as a duration.
func (r RemoteConfig) RequestTimeout() time.Duration {
	return time.Duration(r.RequestTimeoutMS) * time.Millisecond
}

// AgentConfig controls the sync cycle.
type AgentConfig struct {
	IntervalSeconds int  `yaml:"interval_seconds"`
	Reconnect       bool `yaml:"reconnect"` // call connect again when the link is down at cycle start
	History         bool `yaml:"history"`   // append readings to sensors/<kind>/history
	Alerts          bool `yaml:"alerts"`    // post alerts when a reading leaves its range
	Commands        bool `yaml:"commands"`  // run queued dashboard commands from commands/sensors
}

// Interval returns the cycle interval as a duration.
func (a AgentConfig) Interval() time.Duration {
	return time.Duration(a.IntervalSeconds) * time.Second
}

// Range is an inclusive band of acceptable values.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ControlConfig holds the local climate policy.
type ControlConfig struct {
	// Thresholds are keyed by sensor kind (temperature, humidity, co2, moisture, ph).
	Thresholds    map[string]Range `yaml:"thresholds"`
	LightsOnHour  int              `yaml:"lights_on_hour"`  // UTC
	LightsOffHour int              `yaml:"lights_off_hour"` // UTC
	AutoIntensity int              `yaml:"auto_intensity"`  // percent used when lightControl.isAuto is set
}

// SensorsConfig selects the sensor driver.
type SensorsConfig struct {
	Driver  string             `yaml:"driver"`
	Seed    uint64             `yaml:"seed,omitempty"`    // simulated only
	Fixture map[string]float64 `yaml:"fixture,omitempty"` // fixture only, keyed by sensor kind
	Modbus  ModbusConfig       `yaml:"modbus,omitempty"`
}

// ModbusConfig describes a Modbus TCP gateway or serial RTU line.
type ModbusConfig struct {
	Endpoint  string                   `yaml:"endpoint,omitempty"` // host:port, tcp://host:port or rtu:///dev/ttyUSB0
	UnitID    uint8                    `yaml:"unit_id,omitempty"`
	TimeoutMS int                      `yaml:"timeout_ms,omitempty"`
	BaudRate  int                      `yaml:"baud_rate,omitempty"` // RTU only
	DataBits  int                      `yaml:"data_bits,omitempty"` // RTU only
	Parity    string                   `yaml:"parity,omitempty"`    // RTU only: N, E or O
	StopBits  int                      `yaml:"stop_bits,omitempty"` // RTU only
	Channels  map[string]ChannelConfig `yaml:"channels,omitempty"`  // keyed by sensor kind
}

// ChannelConfig maps a reading to one register.
type ChannelConfig struct {
	Address uint16  `yaml:"address"`
	Scale   float64 `yaml:"scale,omitempty"`
	Signed  bool    `yaml:"signed,omitempty"`
	Input   bool    `yaml:"input,omitempty"`
}

// ActuatorsConfig describes the output hardware.
type ActuatorsConfig struct {
	PWMResolutionBits int `yaml:"pwm_resolution_bits"`
	PWMFrequencyHz    int `yaml:"pwm_frequency_hz"`
}

// RobotArmConfig enables the inspection arm.
type RobotArmConfig struct {
	Enabled     bool `yaml:"enabled"`
	MoveDelayMS int  `yaml:"move_delay_ms"`
}

// MoveDelay returns the simulated travel time as a duration.
func (r RobotArmConfig) MoveDelay() time.Duration {
	return time.Duration(r.MoveDelayMS) * time.Millisecond
}

// FeedConfig controls the operator live feed server.
type FeedConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Listen    string `yaml:"listen"`
	Advertise bool   `yaml:"advertise"` // register the feed over mDNS
	Instance  string `yaml:"instance,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Version: CurrentVersion,
		Link: LinkConfig{
			Driver:                LinkDriverSimulated,
			ConnectTimeoutMS:      15000,
			PollIntervalMS:        250,
			SimulatedConnectAfter: 4,
		},
		Remote: RemoteConfig{
			RequestTimeoutMS:   10000,
			Discover:           true,
			DiscoverTimeoutSec: 5,
		},
		Agent: AgentConfig{
			IntervalSeconds: 30,
			Reconnect:       true,
			History:         true,
			Alerts:          true,
			Commands:        true,
		},
		Control: ControlConfig{
			Thresholds: map[string]Range{
				"temperature": {Min: 15, Max: 32},
				"humidity":    {Min: 80, Max: 90},
				"co2":         {Min: 0, Max: 1000},
				"moisture":    {Min: 60, Max: 85},
				"ph":          {Min: 5.0, Max: 8.0},
			},
			LightsOnHour:  6,
			LightsOffHour: 18,
			AutoIntensity: 70,
		},
		Sensors: SensorsConfig{
			Driver: SensorDriverSimulated,
			Seed:   1,
		},
		Actuators: ActuatorsConfig{
			PWMResolutionBits: 8,
			PWMFrequencyHz:    5000,
		},
		RobotArm: RobotArmConfig{
			Enabled:     true,
			MoveDelayMS: 1500,
		},
		Feed: FeedConfig{
			Listen:    ":8787",
			Advertise: true,
		},
	}
}
