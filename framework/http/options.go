package http

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

const (
	// DefaultBaseURI is the Feishu open platform API root.
	DefaultBaseURI = "https://open.feishu.cn/open-apis/"

	// DefaultTimeout is the request timeout in seconds.
	DefaultTimeout = 5.0
)

// ErrInvalidOptions is returned when transport options cannot be decoded.
var ErrInvalidOptions = errors.New("http: invalid options")

// Options are the transport settings applied to every outbound call.
type Options struct {
	// Timeout in seconds; fractional values are allowed.
	Timeout float64           `mapstructure:"timeout"`
	BaseURI string            `mapstructure:"base_uri"`
	Headers map[string]string `mapstructure:"headers"`
	// Retries is the number of extra attempts after a transport error or a 5xx/429 response.
	Retries int `mapstructure:"retries"`

	// explicitTimeout keeps a configured timeout of 0 (no timeout) from being
	// replaced by DefaultTimeout.
	explicitTimeout bool
}

// TimeoutDuration returns Timeout as a time.Duration.
func (o Options) TimeoutDuration() time.Duration {
	return time.Duration(o.Timeout * float64(time.Second))
}

func builtinOptions() Options {
	return Options{Timeout: DefaultTimeout, BaseURI: DefaultBaseURI}
}

// withBuiltins fills every zero field of o from the built-in defaults. A
// timeout decoded from an explicit key is kept even when it is 0.
func withBuiltins(o Options) Options {
	timeout := o.Timeout
	_ = mergo.Merge(&o, builtinOptions())
	if o.explicitTimeout {
		o.Timeout = timeout
	}
	o.Headers = maps.Clone(o.Headers)
	return o
}

var defaults = struct {
	mu   sync.RWMutex
	opts Options
}{opts: builtinOptions()}

// SetDefaultOptions replaces the process-wide options used by every Client
// that was not given its own. Zero fields fall back to the built-ins.
func SetDefaultOptions(o Options) {
	o = withBuiltins(o)
	defaults.mu.Lock()
	defer defaults.mu.Unlock()
	defaults.opts = o
}

// DefaultOptions returns a copy of the process-wide options.
func DefaultOptions() Options {
	defaults.mu.RLock()
	defer defaults.mu.RUnlock()
	o := defaults.opts
	o.Headers = maps.Clone(o.Headers)
	return o
}

// ResetDefaultOptions restores the built-in defaults.
func ResetDefaultOptions() {
	SetDefaultOptions(Options{})
}

// DecodeOptions decodes a raw configuration mapping ({timeout: 5.0, …}).
// A nil raw value yields the built-in defaults. An explicit timeout of 0
// disables the request timeout; an absent key uses DefaultTimeout.
func DecodeOptions(raw any) (Options, error) {
	var o Options
	if raw != nil {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &o,
			WeaklyTypedInput: true,
			TagName:          "mapstructure",
		})
		if err != nil {
			return Options{}, fmt.Errorf("%w: %s", ErrInvalidOptions, err.Error())
		}
		if err := decoder.Decode(raw); err != nil {
			return Options{}, fmt.Errorf("%w: %s", ErrInvalidOptions, err.Error())
		}
		if m, err := cast.ToStringMapE(raw); err == nil {
			_, o.explicitTimeout = m["timeout"]
		}
	}
	if o.Timeout < 0 || o.Retries < 0 {
		return Options{}, fmt.Errorf("%w: timeout and retries must not be negative", ErrInvalidOptions)
	}
	return withBuiltins(o), nil
}
