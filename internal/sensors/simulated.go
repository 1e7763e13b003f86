package sensors

import (
	"math/rand/v2"
	"sync"
)

// Nominal readings and spreads of the simulated chamber.
var simulatedRanges = map[Kind]struct{ base, spread float64 }{
	Temperature: {30.0, 2.0},
	Humidity:    {80.0, 5.0},
	CO2:         {800.0, 100.0},
	Moisture:    {70.0, 5.0},
	PH:          {6.5, 1.0},
}

// Simulated returns pseudo-random readings around nominal chamber values.
// The same seed always yields the same sequence.
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulator with the given seed.
func NewSimulated(seed uint64) *Simulated {
	return &Simulated{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Simulated) read(kind Kind) float64 {
	r := simulatedRanges[kind]
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.base + (s.rng.Float64()*2-1)*r.spread
}

// ReadTemperature returns a simulated temperature in °C.
func (s *Simulated) ReadTemperature() float64 { return s.read(Temperature) }

// ReadHumidity returns a simulated relative humidity in %.
func (s *Simulated) ReadHumidity() float64 { return s.read(Humidity) }

// ReadCO2 returns a simulated CO2 level in ppm.
func (s *Simulated) ReadCO2() float64 { return s.read(CO2) }

// ReadMoisture returns a simulated substrate moisture in %.
func (s *Simulated) ReadMoisture() float64 { return s.read(Moisture) }

// ReadPH returns a simulated pH.
func (s *Simulated) ReadPH() float64 { return s.read(PH) }

// SimulatedRange returns the [min, max] a simulated reading can take.
func SimulatedRange(kind Kind) (float64, float64) {
	r := simulatedRanges[kind]
	return r.base - r.spread, r.base + r.spread
}
