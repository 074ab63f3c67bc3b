// Package logging provides leveled logging for the pipeline and the dashboard server.
package logging

import (
	"os"
	"sync"

	"github.com/jcgregorio/logger"
)

// Logger is the leveled logging surface used throughout the module.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

var (
	mu      sync.RWMutex
	current Logger = New(os.Stderr, false)
)

// New returns a Logger writing to dst. Debug lines are dropped unless debug is set.
func New(dst logger.SyncWriter, debug bool) Logger {
	return logger.NewFromOptions(&logger.Options{
		SyncWriter:   dst,
		DepthDelta:   2,
		IncludeDebug: debug,
	})
}

// SetLogger replaces the package logger and returns the previous one.
func SetLogger(l Logger) Logger {
	mu.Lock()
	defer mu.Unlock()
	prev := current
	current = l
	return prev
}

func get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Debugf logs at debug level.
func Debugf(format string, args ...interface{}) { get().Debugf(format, args...) }

// Infof logs at info level.
func Infof(format string, args ...interface{}) { get().Infof(format, args...) }

// Warningf logs at warning level.
func Warningf(format string, args ...interface{}) { get().Warningf(format, args...) }

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) { get().Errorf(format, args...) }
