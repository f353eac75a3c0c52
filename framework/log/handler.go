package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// ErrMissingLogTarget is returned when a file handler is required but no
// log file was configured.
var ErrMissingLogTarget = errors.New("log: missing log target")

// defaultFilePermission is used when no log.permission is configured.
const defaultFilePermission os.FileMode = 0o644

// Handler is the capability every log sink exposes: it accepts a
// level-tagged message with optional key/value pairs.
type Handler interface {
	Handle(level Level, msg string, args ...any) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(level Level, msg string, args ...any) error

// Handle calls f.
func (f HandlerFunc) Handle(level Level, msg string, args ...any) error {
	return f(level, msg, args...)
}

// Make sure the concrete handlers are Handlers.
var (
	_ Handler = &StreamHandler{}
	_ Handler = &HclogHandler{}
)

// ── StreamHandler ───────────────────────────────────────────────────────────

// StreamHandler appends log lines to a file.
type StreamHandler struct {
	path  string
	level Level
	file  *os.File
	log   hclog.Logger
}

// StreamOption customises a StreamHandler.
type StreamOption func(*hclog.LoggerOptions)

// WithJSONFormat switches the file output to one JSON object per line.
func WithJSONFormat(enabled bool) StreamOption {
	return func(o *hclog.LoggerOptions) { o.JSONFormat = enabled }
}

// WithName sets the logger name printed on every line.
func WithName(name string) StreamOption {
	return func(o *hclog.LoggerOptions) { o.Name = name }
}

// NewStreamHandler opens path for appending, creating it with perm when it
// does not exist (0644 when perm is 0). Messages below level are dropped.
func NewStreamHandler(path string, level Level, perm os.FileMode, opts ...StreamOption) (*StreamHandler, error) {
	if path == "" {
		return nil, ErrMissingLogTarget
	}
	if perm == 0 {
		perm = defaultFilePermission
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, perm)
	if err != nil {
		return nil, fmt.Errorf("log: open %s: %w", path, err)
	}

	options := &hclog.LoggerOptions{
		Name:   defaultName,
		Output: file,
		TimeFn: time.Now,
		Level:  level.convertedLevel(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &StreamHandler{
		path:  path,
		level: level,
		file:  file,
		log:   hclog.New(options),
	}, nil
}

// Path returns the file the handler writes to.
func (h *StreamHandler) Path() string { return h.path }

// Level returns the minimum level the handler writes.
func (h *StreamHandler) Level() Level { return h.level }

func (h *StreamHandler) Handle(level Level, msg string, args ...any) error {
	if !h.level.Enabled(level) {
		return nil
	}
	emit(h.log, level, msg, args)
	return nil
}

// Close closes the underlying file.
func (h *StreamHandler) Close() error {
	return h.file.Close()
}

// ── HclogHandler ────────────────────────────────────────────────────────────

// HclogHandler forwards messages to a caller-supplied hclog.Logger, leaving
// level filtering to it.
type HclogHandler struct {
	log hclog.Logger
}

// NewHclogHandler wraps l.
func NewHclogHandler(l hclog.Logger) *HclogHandler {
	return &HclogHandler{log: l}
}

func (h *HclogHandler) Handle(level Level, msg string, args ...any) error {
	emit(h.log, level, msg, args)
	return nil
}

func emit(l hclog.Logger, level Level, msg string, args []any) {
	switch level {
	case TRACE:
		l.Trace(msg, args...)
	case DEBUG:
		l.Debug(msg, args...)
	case INFO:
		l.Info(msg, args...)
	case WARN:
		l.Warn(msg, args...)
	default:
		l.Error(msg, args...)
	}
}

// closeHandler closes h when it holds a resource.
func closeHandler(h Handler) error {
	if c, ok := h.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
