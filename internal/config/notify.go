package config

// Notifier receives user-facing, non-fatal messages produced while resolving
// configuration.
type Notifier interface {
	// Warn reports a recoverable problem. hint suggests how to fix it.
	Warn(msg, hint string)

	// Info reports a decision the user may want to know about.
	Info(msg string)
}

type discardNotifier struct{}

func (discardNotifier) Warn(string, string) {}
func (discardNotifier) Info(string)         {}
