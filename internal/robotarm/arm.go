// Package robotarm positions the inspection arm over a numbered plot.
package robotarm

import (
	"fmt"
	"sync"
	"time"

	"github.com/myconode/myconode/internal/logging"
	"go.uber.org/zap"
)

// DefaultMoveDelay is how long the stub arm takes to reach a plot.
const DefaultMoveDelay = 1500 * time.Millisecond

// Arm moves to plots. MoveToPlot blocks until the arm has arrived.
type Arm interface {
	MoveToPlot(plot int) error
}

// Stub simulates an arm with a fixed travel time.
type Stub struct {
	Delay time.Duration

	sleep func(time.Duration)

	mu      sync.Mutex
	current int
}

// NewStub creates a stub arm parked at plot 1.
func NewStub(delay time.Duration) *Stub {
	return &Stub{Delay: delay, sleep: time.Sleep, current: 1}
}

// SetSleep replaces the sleep function. Tests use it to avoid real delays.
func (s *Stub) SetSleep(sleep func(time.Duration)) {
	s.sleep = sleep
}

// MoveToPlot simulates travel to plot. Plots are numbered from 1.
func (s *Stub) MoveToPlot(plot int) error {
	if plot < 1 {
		return fmt.Errorf("invalid plot %d: plots are numbered from 1", plot)
	}

	logging.Info("Robot arm moving", zap.Int("plot", plot))
	sleep := s.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(s.Delay)

	s.mu.Lock()
	s.current = plot
	s.mu.Unlock()

	logging.Info("Robot arm arrived", zap.Int("plot", plot))
	return nil
}

// CurrentPlot returns the plot the arm last arrived at.
func (s *Stub) CurrentPlot() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
