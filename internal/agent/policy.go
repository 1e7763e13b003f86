package agent

import (
	"fmt"
	"time"

	"github.com/myconode/myconode/internal/actuators"
	"github.com/myconode/myconode/internal/sensors"
)

// Range is an inclusive band of acceptable values.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Policy is the local climate control policy.
type Policy struct {
	// Thresholds per reading. Kinds without an entry are not controlled
	// and never alert.
	Thresholds map[sensors.Kind]Range

	// LightsOnHour and LightsOffHour bound the automatic lighting window in
	// UTC. The window is [on, off) and wraps past midnight when on > off.
	// Equal hours give an empty window.
	LightsOnHour  int
	LightsOffHour int

	// AutoIntensity is the light level used inside the window when the
	// operator selected automatic lighting.
	AutoIntensity int
}

// Humidifier returns the humidifier state for humidity given its previous
// state. It switches on below the minimum and off above the maximum and
// holds its state in between.
func (p Policy) Humidifier(humidity float64, previous bool) bool {
	r, ok := p.Thresholds[sensors.Humidity]
	if !ok {
		return previous
	}
	switch {
	case humidity < r.Min:
		return true
	case humidity > r.Max:
		return false
	default:
		return previous
	}
}

// ExhaustFan reports whether the fan should run: CO2 or temperature above
// its maximum.
func (p Policy) ExhaustFan(s sensors.Snapshot) bool {
	if r, ok := p.Thresholds[sensors.CO2]; ok && s.CO2 > r.Max {
		return true
	}
	if r, ok := p.Thresholds[sensors.Temperature]; ok && s.Temperature > r.Max {
		return true
	}
	return false
}

// LightIntensity resolves the operator's lighting request at time now to
// a percentage. The result is not clamped: the actuator does that.
func (p Policy) LightIntensity(lc LightControl, now time.Time) int {
	if lc.Status == LightOff {
		return 0
	}
	if lc.IsAuto {
		if p.inLightWindow(now.UTC().Hour()) {
			return p.AutoIntensity
		}
		return 0
	}
	return lc.Intensity
}

func (p Policy) inLightWindow(hour int) bool {
	on, off := p.LightsOnHour, p.LightsOffHour
	switch {
	case on == off:
		return false
	case on < off:
		return hour >= on && hour < off
	default:
		return hour >= on || hour < off
	}
}

// Breaches returns the kinds whose reading is outside its range, in
// sensors.Kinds order.
func (p Policy) Breaches(s sensors.Snapshot) []sensors.Kind {
	var out []sensors.Kind
	for _, kind := range sensors.Kinds {
		r, ok := p.Thresholds[kind]
		if !ok {
			continue
		}
		if !r.Contains(s.Value(kind)) {
			out = append(out, kind)
		}
	}
	return out
}

// AlertMessage describes a breach of kind's range by value.
func (p Policy) AlertMessage(kind sensors.Kind, value float64) string {
	r := p.Thresholds[kind]
	direction, bound := "above", r.Max
	if value < r.Min {
		direction, bound = "below", r.Min
	}
	return fmt.Sprintf("%s %.1f%s is %s %.1f%s", label(kind), value, kind.Unit(), direction, bound, kind.Unit())
}

func label(kind sensors.Kind) string {
	switch kind {
	case sensors.Temperature:
		return "Temperature"
	case sensors.Humidity:
		return "Humidity"
	case sensors.CO2:
		return "CO2"
	case sensors.Moisture:
		return "Moisture"
	case sensors.PH:
		return "pH"
	default:
		return string(kind)
	}
}

// apply drives the climate outputs for s and returns what it set.
func (p Policy) apply(act actuators.Actuators, s sensors.Snapshot, humidifier bool) (bool, bool) {
	humidifier = p.Humidifier(s.Humidity, humidifier)
	fan := p.ExhaustFan(s)
	act.SetHumidifier(humidifier)
	act.SetExhaustFan(fan)
	return humidifier, fan
}
