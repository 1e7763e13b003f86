package sensors

import (
	"fmt"
	"time"
)

// Kind names one environmental reading. The string value is also the
// document path segment used for history (sensors/<kind>/history).
type Kind string

const (
	Temperature Kind = "temperature"
	Humidity    Kind = "humidity"
	CO2         Kind = "co2"
	Moisture    Kind = "moisture"
	PH          Kind = "ph"
)

// Kinds lists every reading in a stable order.
var Kinds = []Kind{Temperature, Humidity, CO2, Moisture, PH}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sensor kind %q", s)
}

// Unit returns the display unit for the reading.
func (k Kind) Unit() string {
	switch k {
	case Temperature:
		return "°C"
	case Humidity, Moisture:
		return "%"
	case CO2:
		return "ppm"
	default:
		return ""
	}
}

// Sensors reads the chamber's environmental sensors. Reads are synchronous
// and never fail: drivers substitute a fallback value when the hardware
// does not answer.
type Sensors interface {
	ReadTemperature() float64
	ReadHumidity() float64
	ReadCO2() float64
	ReadMoisture() float64
	ReadPH() float64
}

// Snapshot is one set of readings taken together.
type Snapshot struct {
	Temperature float64
	Humidity    float64
	CO2         float64
	Moisture    float64
	PH          float64
	Timestamp   time.Time
}

// Read takes a snapshot from s stamped with at.
func Read(s Sensors, at time.Time) Snapshot {
	return Snapshot{
		Temperature: s.ReadTemperature(),
		Humidity:    s.ReadHumidity(),
		CO2:         s.ReadCO2(),
		Moisture:    s.ReadMoisture(),
		PH:          s.ReadPH(),
		Timestamp:   at,
	}
}

// ReadKind reads the single sensor for kind.
func ReadKind(s Sensors, kind Kind) (float64, error) {
	switch kind {
	case Temperature:
		return s.ReadTemperature(), nil
	case Humidity:
		return s.ReadHumidity(), nil
	case CO2:
		return s.ReadCO2(), nil
	case Moisture:
		return s.ReadMoisture(), nil
	case PH:
		return s.ReadPH(), nil
	default:
		return 0, fmt.Errorf("unknown sensor kind %q", kind)
	}
}

// Value returns the reading for kind.
func (s Snapshot) Value(kind Kind) float64 {
	switch kind {
	case Temperature:
		return s.Temperature
	case Humidity:
		return s.Humidity
	case CO2:
		return s.CO2
	case Moisture:
		return s.Moisture
	case PH:
		return s.PH
	default:
		return 0
	}
}

// Fixture returns constant readings. It is the deterministic driver for
// tests and bench setups.
type Fixture Snapshot

// ReadTemperature returns the fixed temperature.
func (f Fixture) ReadTemperature() float64 { return f.Temperature }

// ReadHumidity returns the fixed humidity.
func (f Fixture) ReadHumidity() float64 { return f.Humidity }

// ReadCO2 returns the fixed CO2 level.
func (f Fixture) ReadCO2() float64 { return f.CO2 }

// ReadMoisture returns the fixed substrate moisture.
func (f Fixture) ReadMoisture() float64 { return f.Moisture }

// ReadPH returns the fixed pH.
func (f Fixture) ReadPH() float64 { return f.PH }
