package throttle

// Logger receives non-fatal diagnostics from the session: filter errors,
// filler lifecycle, shutdown timeouts. Implementations must be safe for
// concurrent use.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Noop discards all log output. It is the default when no logger is
// configured.
type Noop struct{}

var _ Logger = &Noop{}

func (n *Noop) Debugf(string, ...any) {}
func (n *Noop) Warnf(string, ...any)  {}
func (n *Noop) Errorf(string, ...any) {}
