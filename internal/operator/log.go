package operator

import (
	"github.com/myconode/myconode/internal/logging"
	"go.uber.org/zap"
)

// LogNotifier forwards operator events to the structured logger.
// Progress ticks go to debug so a normal info log shows one line per connect.
type LogNotifier struct{}

// Notify logs ev at a level derived from its kind.
func (LogNotifier) Notify(ev Event) {
	fields := make([]zap.Field, 0, len(ev.Fields)+1)
	fields = append(fields, zap.String("kind", string(ev.Kind)))
	for k, v := range ev.Fields {
		fields = append(fields, zap.Any(k, v))
	}

	switch ev.Kind {
	case KindLinkProgress:
		logging.Debug(ev.Message, fields...)
	case KindLinkTimeout, KindLinkBeginFailed, KindAlert:
		logging.Warn(ev.Message, fields...)
	default:
		logging.Info(ev.Message, fields...)
	}
}
