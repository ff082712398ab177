// Package monitoring holds the process-wide diagnostic loggers.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Debugf receives per-instruction tracing. It is a no-op until SetVerbose.
var Debugf func(format string, v ...interface{}) = noop

func noop(string, ...interface{}) {}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = noop
		return
	}
	Logf = f
}

var verbose bool

// SetVerbose routes Debugf through Logf when on, and mutes it otherwise.
func SetVerbose(on bool) {
	verbose = on
	if !on {
		Debugf = noop
		return
	}
	Debugf = func(format string, v ...interface{}) {
		Logf(format, v...)
	}
}

// Tracer returns Debugf when verbose logging is on, and nil otherwise, for
// APIs that skip formatting work when handed a nil logger.
func Tracer() func(format string, v ...interface{}) {
	if !verbose {
		return nil
	}
	return Debugf
}
