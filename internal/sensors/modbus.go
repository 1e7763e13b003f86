package sensors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/myconode/myconode/internal/logging"
	"go.uber.org/zap"
)

// RegisterReader reads 16-bit registers from a Modbus slave.
// modbus.Client satisfies it.
type RegisterReader interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
}

// Channel maps one reading to a single register.
type Channel struct {
	Address uint16
	// Scale multiplies the raw register value (e.g., 0.1 for tenths).
	Scale float64
	// Signed interprets the register as two's complement.
	Signed bool
	// Input reads an input register instead of a holding register.
	Input bool
}

// Decode converts a big-endian register into a scaled reading.
func (c Channel) Decode(raw []byte) (float64, error) {
	if len(raw) < 2 {
		return 0, fmt.Errorf("short register response: %d bytes", len(raw))
	}
	word := binary.BigEndian.Uint16(raw[:2])
	scale := c.Scale
	if scale == 0 {
		scale = 1
	}
	if c.Signed {
		return float64(int16(word)) * scale, nil
	}
	return float64(word) * scale, nil
}

// ModbusConfig describes how to reach the sensor slave.
//
// Endpoint is "host:port" or "tcp://host:port" for a TCP gateway, and
// "rtu:///dev/ttyUSB0" or a bare device path for a serial RTU line.
type ModbusConfig struct {
	Endpoint string
	UnitID   byte
	Timeout  time.Duration
	Channels map[Kind]Channel

	// Serial line settings, RTU only. Zero values keep the driver
	// defaults (19200 baud, 8 data bits, even parity, 1 stop bit).
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
}

// Modbus transports.
const (
	TransportTCP = "tcp"
	TransportRTU = "rtu"
)

// ParseModbusEndpoint splits an endpoint into its transport and address.
func ParseModbusEndpoint(endpoint string) (transport, address string, err error) {
	switch {
	case endpoint == "":
		return "", "", errors.New("modbus sensors: endpoint required")
	case strings.HasPrefix(endpoint, "rtu://"):
		transport, address = TransportRTU, strings.TrimPrefix(endpoint, "rtu://")
	case strings.HasPrefix(endpoint, "tcp://"):
		transport, address = TransportTCP, strings.TrimPrefix(endpoint, "tcp://")
	case strings.HasPrefix(endpoint, "/"):
		transport, address = TransportRTU, endpoint
	case strings.Contains(endpoint, "://"):
		return "", "", fmt.Errorf("modbus sensors: unsupported endpoint scheme in %q", endpoint)
	default:
		transport, address = TransportTCP, endpoint
	}
	if address == "" {
		return "", "", fmt.Errorf("modbus sensors: endpoint %q has no address", endpoint)
	}
	return transport, address, nil
}

// handler is a goburrow client handler that owns a connection.
type handler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// newHandler builds the TCP or RTU handler for cfg without connecting it.
func newHandler(cfg ModbusConfig) (handler, error) {
	transport, address, err := ParseModbusEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	switch transport {
	case TransportRTU:
		switch cfg.Parity {
		case "", "N", "E", "O":
		default:
			return nil, fmt.Errorf("modbus sensors: parity %q must be N, E or O", cfg.Parity)
		}
		h := modbus.NewRTUClientHandler(address)
		h.SlaveId = cfg.UnitID
		if cfg.Timeout > 0 {
			h.Timeout = cfg.Timeout
		}
		if cfg.BaudRate > 0 {
			h.BaudRate = cfg.BaudRate
		}
		if cfg.DataBits > 0 {
			h.DataBits = cfg.DataBits
		}
		if cfg.Parity != "" {
			h.Parity = cfg.Parity
		}
		if cfg.StopBits > 0 {
			h.StopBits = cfg.StopBits
		}
		return h, nil

	default:
		h := modbus.NewTCPClientHandler(address)
		h.SlaveId = cfg.UnitID
		if cfg.Timeout > 0 {
			h.Timeout = cfg.Timeout
		}
		return h, nil
	}
}

// Modbus reads sensors through a Modbus register map. A reading with no
// channel, or whose register read fails, comes from the fallback driver.
type Modbus struct {
	mu       sync.Mutex
	reader   RegisterReader
	channels map[Kind]Channel
	fallback Sensors
	handler  handler
}

// NewModbus wraps an existing register reader.
func NewModbus(reader RegisterReader, channels map[Kind]Channel, fallback Sensors) *Modbus {
	return &Modbus{reader: reader, channels: channels, fallback: fallback}
}

// DialModbus connects to a Modbus TCP gateway or opens a serial RTU line.
func DialModbus(cfg ModbusConfig, fallback Sensors) (*Modbus, error) {
	h, err := newHandler(cfg)
	if err != nil {
		return nil, err
	}

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("modbus sensors: connect %s: %w", cfg.Endpoint, err)
	}
	logging.Debug("Modbus sensors connected", zap.String("endpoint", cfg.Endpoint))

	m := NewModbus(modbus.NewClient(h), cfg.Channels, fallback)
	m.handler = h
	return m, nil
}

// Close closes the gateway connection, if DialModbus opened one.
func (m *Modbus) Close() error {
	if m.handler == nil {
		return nil
	}
	return m.handler.Close()
}

func (m *Modbus) read(kind Kind, fallback func() float64) float64 {
	ch, ok := m.channels[kind]
	if !ok || m.reader == nil {
		return fallback()
	}

	m.mu.Lock()
	var raw []byte
	var err error
	if ch.Input {
		raw, err = m.reader.ReadInputRegisters(ch.Address, 1)
	} else {
		raw, err = m.reader.ReadHoldingRegisters(ch.Address, 1)
	}
	m.mu.Unlock()

	if err == nil {
		var v float64
		if v, err = ch.Decode(raw); err == nil {
			logging.Debug("Register read",
				zap.String("kind", string(kind)),
				zap.Uint16("address", ch.Address),
				zap.Float64("value", v),
			)
			return v
		}
	}

	logging.Warn("Sensor read failed, using fallback",
		zap.String("kind", string(kind)),
		zap.Uint16("address", ch.Address),
		zap.Error(err),
	)
	return fallback()
}

func (m *Modbus) fallbackOr(read func(Sensors) float64) func() float64 {
	return func() float64 {
		if m.fallback == nil {
			return 0
		}
		return read(m.fallback)
	}
}

// ReadTemperature reads the temperature channel.
func (m *Modbus) ReadTemperature() float64 {
	return m.read(Temperature, m.fallbackOr(Sensors.ReadTemperature))
}

// ReadHumidity reads the humidity channel.
func (m *Modbus) ReadHumidity() float64 {
	return m.read(Humidity, m.fallbackOr(Sensors.ReadHumidity))
}

// ReadCO2 reads the CO2 channel.
func (m *Modbus) ReadCO2() float64 {
	return m.read(CO2, m.fallbackOr(Sensors.ReadCO2))
}

// ReadMoisture reads the moisture channel.
func (m *Modbus) ReadMoisture() float64 {
	return m.read(Moisture, m.fallbackOr(Sensors.ReadMoisture))
}

// ReadPH reads the pH channel.
func (m *Modbus) ReadPH() float64 {
	return m.read(PH, m.fallbackOr(Sensors.ReadPH))
}
