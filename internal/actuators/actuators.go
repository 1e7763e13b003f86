package actuators

import (
	"sync"

	"github.com/myconode/myconode/internal/logging"
	"go.uber.org/zap"
)

// DefaultResolutionBits is the PWM resolution of the light channel.
const DefaultResolutionBits = 8

// Actuators drives the chamber's outputs.
type Actuators interface {
	SetLightIntensity(percent int)
	SetHumidifier(on bool)
	SetExhaustFan(on bool)
}

// ClampPercent limits percent to [0, 100].
func ClampPercent(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// DutyCycle maps a percentage onto a PWM duty value of the given bit
// resolution: 0% is 0 and 100% is 2^bits-1. Out-of-range input is clamped.
// A resolution outside 1..16 bits uses DefaultResolutionBits.
func DutyCycle(percent int, bits int) int {
	if bits < 1 || bits > 16 {
		bits = DefaultResolutionBits
	}
	maxDuty := (1 << bits) - 1
	return ClampPercent(percent) * maxDuty / 100
}

// Outputs is the hardware driver under a Controller. It receives already
// clamped values.
type Outputs interface {
	WriteLightDuty(duty int) error
	WriteHumidifier(on bool) error
	WriteExhaustFan(on bool) error
}

// State is the last set of values applied to the outputs.
type State struct {
	LightPercent int  `json:"lightPercent"`
	LightDuty    int  `json:"lightDuty"`
	Humidifier   bool `json:"humidifier"`
	ExhaustFan   bool `json:"exhaustFan"`
}

// Controller implements Actuators on top of an Outputs driver. It clamps
// the light intensity before the duty mapping and remembers what it applied.
type Controller struct {
	out  Outputs
	bits int

	mu    sync.Mutex
	state State
}

// NewController creates a controller with the given PWM resolution.
func NewController(out Outputs, bits int) *Controller {
	if bits < 1 || bits > 16 {
		bits = DefaultResolutionBits
	}
	return &Controller{out: out, bits: bits}
}

// SetLightIntensity clamps percent and writes the matching duty cycle.
func (c *Controller) SetLightIntensity(percent int) {
	percent = ClampPercent(percent)
	duty := DutyCycle(percent, c.bits)

	if err := c.out.WriteLightDuty(duty); err != nil {
		logging.Error("Failed to set light intensity", zap.Int("percent", percent), zap.Error(err))
		return
	}

	c.mu.Lock()
	c.state.LightPercent = percent
	c.state.LightDuty = duty
	c.mu.Unlock()
}

// SetHumidifier switches the humidifier.
func (c *Controller) SetHumidifier(on bool) {
	if err := c.out.WriteHumidifier(on); err != nil {
		logging.Error("Failed to switch humidifier", zap.Bool("on", on), zap.Error(err))
		return
	}
	c.mu.Lock()
	c.state.Humidifier = on
	c.mu.Unlock()
}

// SetExhaustFan switches the exhaust fan.
func (c *Controller) SetExhaustFan(on bool) {
	if err := c.out.WriteExhaustFan(on); err != nil {
		logging.Error("Failed to switch exhaust fan", zap.Bool("on", on), zap.Error(err))
		return
	}
	c.mu.Lock()
	c.state.ExhaustFan = on
	c.mu.Unlock()
}

// State returns the last applied values.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LogOutputs is an Outputs driver that only logs. It stands in for real
// PWM and relay hardware.
type LogOutputs struct {
	// FrequencyHz is reported with light writes.
	FrequencyHz int
}

// WriteLightDuty logs the duty value.
func (o LogOutputs) WriteLightDuty(duty int) error {
	logging.Info("Light duty set", zap.Int("duty", duty), zap.Int("frequency_hz", o.FrequencyHz))
	return nil
}

// WriteHumidifier logs the humidifier state.
func (o LogOutputs) WriteHumidifier(on bool) error {
	logging.Info("Humidifier switched", zap.Bool("on", on))
	return nil
}

// WriteExhaustFan logs the fan state.
func (o LogOutputs) WriteExhaustFan(on bool) error {
	logging.Info("Exhaust fan switched", zap.Bool("on", on))
	return nil
}
