package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Repository is the read-only configuration tree handed to every module.
// Keys are looked up by dotted path ("log.file"); a flat key containing dots
// takes precedence over the nested path.
type Repository struct {
	items map[string]any
}

// defaultItems returns a fresh copy of the built-in defaults.
func defaultItems() map[string]any {
	return map[string]any{
		"debug": false,
		"log": map[string]any{
			"level": "warning",
		},
	}
}

// New builds a Repository from a raw configuration blob. Nested maps are
// normalized to map[string]any and missing defaults are filled in.
func New(items map[string]any) (*Repository, error) {
	merged, _ := normalize(items).(map[string]any)
	if merged == nil {
		merged = make(map[string]any)
	}
	if err := mergo.Merge(&merged, defaultItems()); err != nil {
		return nil, fmt.Errorf("config: merge defaults: %w", err)
	}
	return &Repository{items: merged}, nil
}

// MustNew is like New but panics on error.
func MustNew(items map[string]any) *Repository {
	r, err := New(items)
	if err != nil {
		panic(err)
	}
	return r
}

// Parse decodes a YAML (or JSON) document into a raw configuration blob.
func Parse(data []byte) (map[string]any, error) {
	items := make(map[string]any)
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return items, nil
}

// LoadFile reads and parses a YAML or JSON configuration file.
func LoadFile(path string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	items, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return New(items)
}

// ── Lookup ──────────────────────────────────────────────────────────────────

// Get returns the raw value at key, or nil.
func (r *Repository) Get(key string) any {
	v, _ := r.lookup(key)
	return v
}

// GetOr returns the value at key, or fallback when the key is absent or nil.
func (r *Repository) GetOr(key string, fallback any) any {
	if v, ok := r.lookup(key); ok && v != nil {
		return v
	}
	return fallback
}

// Has reports whether key is present.
func (r *Repository) Has(key string) bool {
	_, ok := r.lookup(key)
	return ok
}

// String returns the value at key converted to a string.
func (r *Repository) String(key string) string {
	return cast.ToString(r.Get(key))
}

// StringOr returns the string at key, or fallback when it is empty.
func (r *Repository) StringOr(key, fallback string) string {
	if s := r.String(key); s != "" {
		return s
	}
	return fallback
}

// Bool returns the value at key converted to a bool ("1", "true", …).
func (r *Repository) Bool(key string) bool {
	return cast.ToBool(r.Get(key))
}

// Int returns the value at key converted to an int.
func (r *Repository) Int(key string) int {
	return cast.ToInt(r.Get(key))
}

// Float64 returns the value at key converted to a float64.
func (r *Repository) Float64(key string) float64 {
	return cast.ToFloat64(r.Get(key))
}

// Duration returns the value at key as a time.Duration. Bare numbers and
// numeric strings are seconds, matching http.timeout; other strings use
// time.ParseDuration syntax ("5m").
func (r *Repository) Duration(key string) time.Duration {
	switch v := r.Get(key).(type) {
	case nil:
		return 0
	case time.Duration:
		return v
	case string:
		if secs, err := cast.ToFloat64E(strings.TrimSpace(v)); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
		return cast.ToDuration(v)
	default:
		secs, err := cast.ToFloat64E(v)
		if err != nil {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
}

// Sub returns the mapping at key, or nil when it is not a mapping.
func (r *Repository) Sub(key string) map[string]any {
	m, err := cast.ToStringMapE(r.Get(key))
	if err != nil {
		return nil
	}
	return m
}

// All returns a shallow copy of the top-level items.
func (r *Repository) All() map[string]any {
	out := make(map[string]any, len(r.items))
	for k, v := range r.items {
		out[k] = v
	}
	return out
}

// Decode decodes the mapping at key into out using mapstructure tags.
// Strings are converted to durations and numbers where the target needs it.
func (r *Repository) Decode(key string, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("config: decoder: %w", err)
	}
	if err := decoder.Decode(r.Get(key)); err != nil {
		return fmt.Errorf("config: decode %s: %w", key, err)
	}
	return nil
}

func (r *Repository) lookup(path string) (any, bool) {
	if r == nil {
		return nil, false
	}
	if v, ok := r.items[path]; ok {
		return v, true
	}

	var cur any = r.items
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// normalize deep-copies nested maps into map[string]any. Everything else,
// handler objects included, is kept by reference.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	if reflect.TypeOf(v).Kind() != reflect.Map {
		return v
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return v
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = normalize(val)
	}
	return out
}
