package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// Meter renders a one-line progress bar for a bounded wait such as a link
// connect attempt. It is stateless between renders so it can be driven from
// plain event callbacks without a bubbletea program.
type Meter struct {
	Label string
	bar   progress.Model
}

// NewMeter creates a meter sized for the given terminal width.
func NewMeter(label string, width int) *Meter {
	barWidth := width - 30 // Leave room for label and timing
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	return &Meter{
		Label: label,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		),
	}
}

// Fraction returns elapsed/total clamped to [0,1]. A zero total is complete.
func Fraction(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 1
	}
	f := float64(elapsed) / float64(total)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Render returns the bar for elapsed out of total.
func (m *Meter) Render(elapsed, total time.Duration) string {
	percent := Fraction(elapsed, total)
	timing := StepNoteStyle.Render(fmt.Sprintf("%s / %s",
		elapsed.Truncate(time.Millisecond), total.Truncate(time.Millisecond)))

	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%  %s", m.bar.ViewAs(percent), percent*100, timing))
}
