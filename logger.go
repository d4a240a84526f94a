package nmongo

import "log"

// Logger allows for simple text logging. Connection logs through this
// interface rather than the global logger, so an embedding application
// can route nmongo's log lines wherever it likes.
type Logger interface {
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
}

// StdLogger is a Logger backed by the standard library logger. It is
// used only where it is set explicitly (cmd/nmongo injects one); a
// Connection with no Log discards its log lines via noopLogger.
type StdLogger struct{}

func (l *StdLogger) Error(args ...interface{})                 { log.Print(args...) }
func (l *StdLogger) Errorf(format string, args ...interface{}) { log.Printf(format, args...) }
func (l *StdLogger) Warn(args ...interface{})                  { log.Print(args...) }
func (l *StdLogger) Warnf(format string, args ...interface{})  { log.Printf(format, args...) }
func (l *StdLogger) Info(args ...interface{})                  { log.Print(args...) }
func (l *StdLogger) Infof(format string, args ...interface{})  { log.Printf(format, args...) }
func (l *StdLogger) Debug(args ...interface{})                 { log.Print(args...) }
func (l *StdLogger) Debugf(format string, args ...interface{}) { log.Printf(format, args...) }

// noopLogger discards everything; used internally as the zero-value
// fallback so Connection never needs a nil check before logging.
type noopLogger struct{}

func (noopLogger) Error(args ...interface{})                 {}
func (noopLogger) Errorf(format string, args ...interface{}) {}
func (noopLogger) Warn(args ...interface{})                  {}
func (noopLogger) Warnf(format string, args ...interface{})  {}
func (noopLogger) Info(args ...interface{})                  {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Debug(args ...interface{})                 {}
func (noopLogger) Debugf(format string, args ...interface{}) {}
