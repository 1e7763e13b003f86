package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/myconode/myconode/internal/logging"
	"github.com/myconode/myconode/internal/sensors"
	"gopkg.in/yaml.v3"
)

const (
	appName    = "myconode"
	configFile = "config.yaml"
)

// fileMutex serializes writes to the config file
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/myconode or $HOME/.config/myconode
//   - macOS: $HOME/.config/myconode (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\myconode
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			return filepath.Join(xdgConfigHome, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the configuration at path. An empty path means GetConfigPath.
// A missing file yields DefaultConfig. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return Config{}, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return Config{}, fmt.Errorf("unsupported config version: %d (expected %d)", cfg.Version, CurrentVersion)
	}
	if cfg.Link.PollIntervalMS <= 0 {
		cfg.Link.PollIntervalMS = DefaultConfig().Link.PollIntervalMS
	}
	if cfg.Actuators.PWMResolutionBits <= 0 {
		cfg.Actuators.PWMResolutionBits = DefaultConfig().Actuators.PWMResolutionBits
	}

	return cfg, nil
}

// Validate reports the first setting that would stop the agent from running.
func (c Config) Validate() error {
	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", c.LogLevel)
	}

	switch c.Link.Driver {
	case LinkDriverNMCLI:
		if c.Link.NetworkName == "" {
			return errors.New("link.network_name is required for the nmcli driver")
		}
	case LinkDriverHost, LinkDriverSimulated:
	default:
		return fmt.Errorf("link.driver %q must be one of nmcli, host, simulated", c.Link.Driver)
	}
	if c.Link.ConnectTimeoutMS < 0 {
		return errors.New("link.connect_timeout_ms must not be negative")
	}

	if c.Remote.Host == "" {
		if !c.Remote.Discover {
			return errors.New("remote.host is required when remote.discover is off")
		}
	} else if u, err := url.Parse(c.Remote.Host); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("remote.host %q must be an absolute http or https URL", c.Remote.Host)
	}
	if c.Remote.RequestTimeoutMS < 0 {
		return errors.New("remote.request_timeout_ms must not be negative")
	}

	if c.Agent.IntervalSeconds <= 0 {
		return errors.New("agent.interval_seconds must be positive")
	}

	for name, r := range c.Control.Thresholds {
		if _, err := sensors.ParseKind(name); err != nil {
			return fmt.Errorf("control.thresholds: %w", err)
		}
		if r.Min > r.Max {
			return fmt.Errorf("control.thresholds.%s: min %.2f is above max %.2f", name, r.Min, r.Max)
		}
	}
	if c.Control.LightsOnHour < 0 || c.Control.LightsOnHour > 23 || c.Control.LightsOffHour < 0 || c.Control.LightsOffHour > 23 {
		return errors.New("control.lights_on_hour and lights_off_hour must be between 0 and 23")
	}
	if c.Control.AutoIntensity < 0 || c.Control.AutoIntensity > 100 {
		return errors.New("control.auto_intensity must be between 0 and 100")
	}

	switch c.Sensors.Driver {
	case SensorDriverSimulated:
	case SensorDriverFixture:
		for name := range c.Sensors.Fixture {
			if _, err := sensors.ParseKind(name); err != nil {
				return fmt.Errorf("sensors.fixture: %w", err)
			}
		}
	case SensorDriverModbus:
		if c.Sensors.Modbus.Endpoint == "" {
			return errors.New("sensors.modbus.endpoint is required for the modbus driver")
		}
		if _, _, err := sensors.ParseModbusEndpoint(c.Sensors.Modbus.Endpoint); err != nil {
			return fmt.Errorf("sensors.modbus.endpoint: %w", err)
		}
		switch c.Sensors.Modbus.Parity {
		case "", "N", "E", "O":
		default:
			return fmt.Errorf("sensors.modbus.parity %q must be N, E or O", c.Sensors.Modbus.Parity)
		}
		for name := range c.Sensors.Modbus.Channels {
			if _, err := sensors.ParseKind(name); err != nil {
				return fmt.Errorf("sensors.modbus.channels: %w", err)
			}
		}
	default:
		return fmt.Errorf("sensors.driver %q must be one of simulated, fixture, modbus", c.Sensors.Driver)
	}

	if c.Actuators.PWMResolutionBits < 1 || c.Actuators.PWMResolutionBits > 16 {
		return errors.New("actuators.pwm_resolution_bits must be between 1 and 16")
	}
	if c.RobotArm.MoveDelayMS < 0 {
		return errors.New("robot_arm.move_delay_ms must not be negative")
	}
	if c.Feed.Enabled && c.Feed.Listen == "" {
		return errors.New("feed.listen is required when the feed is enabled")
	}
	return nil
}

// Save writes the configuration to path (GetConfigPath when empty).
// The write is atomic and the file is readable by the owner only, since
// it holds the link and store secrets.
func (c Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# myconode configuration
# Holds the access point and document store secrets: keep it private.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Link.Secret = mask(c.Link.Secret)
	c.Remote.Secret = mask(c.Remote.Secret)
	return c
}
