package container

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

var (
	// ErrUnknownIdentifier is returned when resolving an id nothing was bound to.
	ErrUnknownIdentifier = errors.New("container: unknown identifier")

	// ErrTypeMismatch is returned by Resolve when the bound value has a different type.
	ErrTypeMismatch = errors.New("container: type mismatch")
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory builds a value from the container. Shared factories run at most once.
type Factory func(c *Container) (any, error)

// Extender decorates a resolved value and returns the value to keep.
type Extender func(instance any, c *Container) any

// entry is a single binding. A nil factory means value is a direct instance.
// value, err and done are guarded by the container's mu.
type entry struct {
	factory Factory
	shared  bool

	once  sync.Once
	value any
	err   error
	done  bool
}

func (e *entry) resolve(c *Container, key string) (any, error) {
	if e.factory == nil {
		return e.snapshot(c)
	}
	if !e.shared {
		v, err := e.factory(c)
		if err != nil {
			return nil, err
		}
		v, _ = c.extend(key, v, 0)
		return v, nil
	}
	e.once.Do(func() {
		v, err := e.factory(c)
		applied := 0
		for {
			if err == nil {
				v, applied = c.extend(key, v, applied)
			}
			// An Extend racing with the factory is picked up on the next pass.
			c.mu.Lock()
			if err != nil || len(c.extenders[key]) == applied {
				e.value, e.err, e.done = v, err, true
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
		}
	})
	return e.snapshot(c)
}

func (e *entry) snapshot(c *Container) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return e.value, e.err
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the service locator every SDK module is resolved from.
//
// It supports:
//   - Set / Singleton / Bind / Instance / Alias
//   - Get / Has / Resolve (generic)
//   - Forget and Keys for inspection
//   - Extend decorators and Rebinding callbacks
//   - AfterResolving callbacks
//
// Shared factories are guarded per entry, so concurrent first access to the
// same id still invokes the factory exactly once.
type Container struct {
	mu sync.RWMutex

	// id → binding
	entries map[string]*entry

	// alias → id (canonical key)
	aliases map[string]string

	// id → decorators, applied in registration order
	extenders map[string][]Extender

	// id → callbacks fired when a resolved id is bound again or extended
	rebound map[string][]func(any)

	// resolved callbacks: []func(id, instance)
	afterResolving []func(string, any)
}

// New creates an empty container.
func New() *Container {
	c := &Container{
		entries:   make(map[string]*entry),
		aliases:   make(map[string]string),
		extenders: make(map[string][]Extender),
		rebound:   make(map[string][]func(any)),
	}
	c.Instance("container", c)
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Set binds id to a Factory (lazy, resolved once) or to a direct value.
// Overwriting an existing binding is not an error; the last write wins, and
// when the old binding was already resolved the Rebinding callbacks of id
// receive the new value.
//
//	c.Set("config", container.Factory(func(c *container.Container) (any, error) {
//	    return config.New(raw)
//	}))
//	c.Set("app_id", "cli_a1b2c3")
func (c *Container) Set(id string, factoryOrValue any) {
	switch f := factoryOrValue.(type) {
	case Factory:
		c.Singleton(id, f)
	case func(*Container) (any, error):
		c.Singleton(id, f)
	default:
		c.Instance(id, factoryOrValue)
	}
}

// Singleton registers a factory whose result is cached after first resolution.
func (c *Container) Singleton(id string, factory Factory) {
	c.put(id, &entry{factory: factory, shared: true})
}

// Bind registers a transient factory, invoked on every Get.
func (c *Container) Bind(id string, factory Factory) {
	c.put(id, &entry{factory: factory})
}

// Instance registers a pre-built value.
func (c *Container) Instance(id string, instance any) {
	c.put(id, &entry{value: instance, done: true})
}

func (c *Container) put(id string, e *entry) {
	c.mu.Lock()
	key := c.canonical(id)
	old, existed := c.entries[key]
	rebinding := existed && old.done && len(c.rebound[key]) > 0
	if e.factory == nil {
		// Instances skip the factory path, so extenders apply here.
		pending := c.extenders[key]
		c.mu.Unlock()
		for _, fn := range pending {
			e.value = fn(e.value, c)
		}
		c.mu.Lock()
	}
	c.entries[key] = e
	c.mu.Unlock()

	if !rebinding {
		return
	}
	// Rebinding callbacks only see a value that resolves cleanly.
	if instance, err := c.Get(key); err == nil {
		c.fireRebound(key, instance)
	}
}

// Alias registers an alternative name for id.
//
//	c.Alias("access_token", "token")
func (c *Container) Alias(id, alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == alias {
		panic(fmt.Sprintf("container: [%s] is aliased to itself", id))
	}
	c.aliases[alias] = c.canonical(id)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get resolves id. Shared factories run on first access and their result,
// value or error, is returned on every later call.
func (c *Container) Get(id string) (any, error) {
	c.mu.RLock()
	key := c.canonical(id)
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w [%s]", ErrUnknownIdentifier, id)
	}

	instance, err := e.resolve(c, key)
	if err != nil {
		return nil, err
	}

	c.fireAfterResolving(key, instance)
	return instance, nil
}

// MustGet is like Get but panics on error.
func (c *Container) MustGet(id string) any {
	instance, err := c.Get(id)
	if err != nil {
		panic(err)
	}
	return instance
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Has returns true if id is bound, whether or not it has been resolved.
func (c *Container) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[c.canonical(id)]
	return ok
}

// Resolved returns true if id holds a value that no longer needs a factory call.
func (c *Container) Resolved(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[c.canonical(id)]
	return ok && e.done
}

// Forget removes the binding for id.
func (c *Container) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, c.canonical(id))
}

// Keys returns the sorted list of bound ids.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// canonical resolves an alias to its canonical key.
func (c *Container) canonical(id string) string {
	if target, ok := c.aliases[id]; ok {
		return target
	}
	return id
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates the value bound to id. Extenders run in registration order
// on every later resolution; an id that is already resolved is decorated at
// once and its Rebinding callbacks receive the new value.
//
//	c.Extend("event", func(instance any, c *container.Container) any {
//	    instance.(*event.Dispatcher).On("im.message.receive_v1", onMessage)
//	    return instance
//	})
func (c *Container) Extend(id string, fn Extender) {
	c.mu.Lock()
	key := c.canonical(id)
	c.extenders[key] = append(c.extenders[key], fn)
	e, ok := c.entries[key]
	if !ok || !e.done || e.err != nil {
		c.mu.Unlock()
		return
	}
	current := e.value
	c.mu.Unlock()

	extended := fn(current, c)

	c.mu.Lock()
	if c.entries[key] != e {
		// Rebound meanwhile; the new binding already carries fn.
		c.mu.Unlock()
		return
	}
	e.value = extended
	c.mu.Unlock()
	c.fireRebound(key, extended)
}

// extend applies the extenders of key from index applied onwards and returns
// the decorated value with the new count.
func (c *Container) extend(key string, v any, applied int) (any, int) {
	c.mu.RLock()
	pending := c.extenders[key][applied:]
	c.mu.RUnlock()
	for _, fn := range pending {
		v = fn(v, c)
	}
	return v, applied + len(pending)
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// Rebinding registers a callback fired with the new value whenever an already
// resolved id is bound again or extended.
//
//	c.Rebinding("http", func(any) { c.Forget("im") })
func (c *Container) Rebinding(id string, cb func(instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(id)
	c.rebound[key] = append(c.rebound[key], cb)
}

func (c *Container) fireRebound(key string, instance any) {
	c.mu.RLock()
	cbs := c.rebound[key]
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(instance)
	}
}

// AfterResolving registers a callback fired after every successful Get.
func (c *Container) AfterResolving(cb func(id string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireAfterResolving(id string, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(id, instance)
	}
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, or "" for an untyped
// nil.
//
//	key := container.TypeKey((*im.Im)(nil))  // "github.com/km-arc/go-feishu/services/im.Im"
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve calls Get and type-asserts the result.
//
//	// Instead of: v, err := c.Get("im"); messenger := v.(*im.Im)
//	// Write:      messenger, err := container.Resolve[*im.Im](c, "im")
func Resolve[T any](c *Container, id string) (T, error) {
	var zero T
	instance, err := c.Get(id)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: [%s] resolved to %T, want %T", ErrTypeMismatch, id, instance, zero)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](c *Container, id string) T {
	typed, err := Resolve[T](c, id)
	if err != nil {
		panic(err)
	}
	return typed
}
