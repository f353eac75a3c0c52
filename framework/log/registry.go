package log

import "sync"

var (
	// nullLogger is returned by Current while no logger is set.
	nullLogger = New(defaultName)

	registry struct {
		mu     sync.Mutex
		logger *Logger
	}
)

// HasLogger reports whether a process-wide logger is set.
func HasLogger() bool {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.logger != nil
}

// SetLogger replaces the process-wide logger.
func SetLogger(l *Logger) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.logger = l
}

// InitOnce sets the process-wide logger from build unless one is already
// set, in which case build is not called. It reports whether build ran and
// succeeded.
func InitOnce(build func() (*Logger, error)) (bool, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if registry.logger != nil {
		return false, nil
	}
	l, err := build()
	if err != nil {
		return false, err
	}
	registry.logger = l
	return true, nil
}

// Current returns the process-wide logger, or a silent one when unset.
func Current() *Logger {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if registry.logger == nil {
		return nullLogger
	}
	return registry.logger
}

// Reset clears the process-wide logger and returns the previous one.
// It exists for tests that need a clean registry.
func Reset() *Logger {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	prev := registry.logger
	registry.logger = nil
	return prev
}

func Trace(msg string, args ...any) { Current().Trace(msg, args...) }
func Debug(msg string, args ...any) { Current().Debug(msg, args...) }
func Info(msg string, args ...any)  { Current().Info(msg, args...) }
func Warn(msg string, args ...any)  { Current().Warn(msg, args...) }
func Error(msg string, args ...any) { Current().Error(msg, args...) }
