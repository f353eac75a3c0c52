package log

import (
	"errors"
	"sync"
)

const defaultName = "feishu"

// Logger fans a message out to its handlers. With no handler attached every
// call succeeds and nothing is written.
type Logger struct {
	name string

	mu       sync.RWMutex
	handlers []Handler
}

// New creates a named Logger.
func New(name string, handlers ...Handler) *Logger {
	if name == "" {
		name = defaultName
	}
	return &Logger{name: name, handlers: handlers}
}

// Name returns the logger name.
func (l *Logger) Name() string { return l.name }

// PushHandler attaches another handler.
func (l *Logger) PushHandler(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

// Handlers returns a copy of the attached handlers.
func (l *Logger) Handlers() []Handler {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Handler, len(l.handlers))
	copy(out, l.handlers)
	return out
}

// Log writes msg to every handler and joins their errors.
func (l *Logger) Log(level Level, msg string, args ...any) error {
	var errs []error
	for _, h := range l.Handlers() {
		if err := h.Handle(level, msg, args...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Logger) Trace(msg string, args ...any) { _ = l.Log(TRACE, msg, args...) }
func (l *Logger) Debug(msg string, args ...any) { _ = l.Log(DEBUG, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { _ = l.Log(INFO, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { _ = l.Log(WARN, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { _ = l.Log(ERROR, msg, args...) }

// Close closes every handler that holds a resource.
func (l *Logger) Close() error {
	var errs []error
	for _, h := range l.Handlers() {
		if err := closeHandler(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
