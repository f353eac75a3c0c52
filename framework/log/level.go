package log

import (
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cast"
)

type Level int

const (
	ERROR Level = iota
	WARN
	INFO
	DEBUG
	TRACE
)

func (l Level) String() string {
	switch l {
	case ERROR:
		return "ERROR"
	case WARN:
		return "WARN"
	case INFO:
		return "INFO"
	case DEBUG:
		return "DEBUG"
	case TRACE:
		return "TRACE"
	default:
		return "Level(" + strconv.Itoa(int(l)) + ")"
	}
}

// Enabled reports whether a message at msg passes a handler set to l.
func (l Level) Enabled(msg Level) bool {
	return msg <= l
}

func (l Level) convertedLevel() hclog.Level {
	switch l {
	case TRACE:
		return hclog.Trace
	case DEBUG:
		return hclog.Debug
	case INFO:
		return hclog.Info
	case WARN:
		return hclog.Warn
	case ERROR:
		return hclog.Error
	default:
		return hclog.Warn
	}
}

// ParseLevel converts a configured level into a Level. It accepts names
// ("warning", "WARN", "debug", …) and the numeric severities used by PSR-3
// style loggers (100 debug, 200 info, 250 notice, 300 warning, 400+ error).
// Anything unrecognised falls back to WARN.
func ParseLevel(v any) Level {
	switch l := v.(type) {
	case nil:
		return WARN
	case Level:
		return l
	case string:
		if n, err := cast.ToIntE(strings.TrimSpace(l)); err == nil {
			return levelFromSeverity(n)
		}
		return levelFromName(l)
	default:
		if n, err := cast.ToIntE(l); err == nil {
			return levelFromSeverity(n)
		}
		return WARN
	}
}

func levelFromName(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "INFO", "NOTICE":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR", "CRITICAL", "ALERT", "EMERGENCY":
		return ERROR
	default:
		return WARN
	}
}

func levelFromSeverity(n int) Level {
	switch {
	case n < 200:
		return DEBUG
	case n < 300:
		return INFO
	case n < 400:
		return WARN
	default:
		return ERROR
	}
}
