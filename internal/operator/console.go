package operator

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/myconode/myconode/internal/ui"
)

// Field keys used by link events. The console reads them to draw the
// connect progress bar.
const (
	FieldNetwork   = "network"
	FieldElapsedMS = "elapsed_ms"
	FieldTimeoutMS = "timeout_ms"
	FieldAddress   = "address"
	FieldError     = "error"
)

// Console writes human-readable operator lines to a writer, normally stdout.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	width int
	meter *ui.Meter
}

// NewConsole returns a console notifier writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out, width: ui.GetTerminalWidth()}
}

// Notify renders ev as a single line.
func (c *Console) Notify(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stamp := ui.StepNoteStyle.Render(ev.Time.Format("15:04:05"))

	switch ev.Kind {
	case KindLinkConnecting:
		c.meter = ui.NewMeter(ev.Message, c.width)
		fmt.Fprintf(c.out, "%s %s %s\n", stamp, ui.ProgressLabelStyle.Render(ui.RunningMarker), ev.Message)
	case KindLinkProgress:
		if c.meter == nil {
			c.meter = ui.NewMeter(ev.Message, c.width)
		}
		elapsed := durationField(ev.Fields, FieldElapsedMS)
		timeout := durationField(ev.Fields, FieldTimeoutMS)
		fmt.Fprintf(c.out, "%s %s\n", stamp, c.meter.Render(elapsed, timeout))
	case KindLinkConnected, KindArmMoved:
		c.meter = nil
		fmt.Fprintf(c.out, "%s %s %s%s\n", stamp, ui.SuccessTitleStyle.Render(ui.SuccessMarker), ev.Message, formatFields(ev.Fields))
	case KindLinkTimeout, KindLinkBeginFailed:
		c.meter = nil
		fmt.Fprintf(c.out, "%s %s %s%s\n", stamp, ui.ErrorTitleStyle.Render(ui.FailureMarker), ev.Message, formatFields(ev.Fields))
	case KindAlert:
		fmt.Fprintf(c.out, "%s %s %s\n", stamp, ui.WarningTitleStyle.Render(ui.WarningMarker), ev.Message)
	default:
		fmt.Fprintf(c.out, "%s   %s%s\n", stamp, ev.Message, formatFields(ev.Fields))
	}
}

func durationField(fields map[string]any, key string) time.Duration {
	switch v := fields[key].(type) {
	case int64:
		return time.Duration(v) * time.Millisecond
	case int:
		return time.Duration(v) * time.Millisecond
	case float64:
		return time.Duration(v * float64(time.Millisecond))
	default:
		return 0
	}
}

func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == FieldElapsedMS || k == FieldTimeoutMS {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := ""
	for _, k := range keys {
		s += fmt.Sprintf(" %s=%v", k, fields[k])
	}
	return ui.StepNoteStyle.Render(s)
}
