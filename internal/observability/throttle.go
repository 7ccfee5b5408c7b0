package observability

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/amrewind/rewind/internal/throttle"
)

// ThrottleLogger adapts a gofulmen logger to the throttle.Logger interface
// so the session can report filter errors and shutdown timeouts through
// the application's logging pipeline.
type ThrottleLogger struct {
	Logger *logging.Logger
}

var _ throttle.Logger = &ThrottleLogger{}

func (l *ThrottleLogger) Debugf(format string, args ...any) {
	if l == nil || l.Logger == nil {
		return
	}
	l.Logger.Debug(fmt.Sprintf(format, args...))
}

func (l *ThrottleLogger) Warnf(format string, args ...any) {
	if l == nil || l.Logger == nil {
		return
	}
	l.Logger.Warn(fmt.Sprintf(format, args...))
}

func (l *ThrottleLogger) Errorf(format string, args ...any) {
	if l == nil || l.Logger == nil {
		return
	}
	l.Logger.Error(fmt.Sprintf(format, args...))
}
