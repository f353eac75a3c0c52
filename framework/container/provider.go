package container

import "sync"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider binds one or more entries into the container.
//
//	type ImServiceProvider struct{}
//
//	func (p *ImServiceProvider) Register(app *container.Container) error {
//	    app.Singleton("im", func(c *container.Container) (any, error) {
//	        return im.New(...), nil
//	    })
//	    return nil
//	}
//
// Register must not resolve entries bound by later providers; resolution
// happens lazily after every provider has run.
type ServiceProvider interface {
	Register(app *Container) error
}

// ProviderFunc adapts a plain function to ServiceProvider.
type ProviderFunc func(app *Container) error

// Register calls f(app).
func (f ProviderFunc) Register(app *Container) error { return f(app) }

// ── Provider identifiers ──────────────────────────────────────────────────────

// Provider identifies a ServiceProvider by name and knows how to build a
// fresh instance of it.
type Provider struct {
	Name string
	New  func() ServiceProvider
}

// ProviderOf returns the Provider for a provider struct type. The name is
// the package-qualified type name and New returns a zero value of *T.
//
//	container.ProviderOf[providers.ContactServiceProvider]()
func ProviderOf[T any, PT interface {
	*T
	ServiceProvider
}]() Provider {
	return Provider{
		Name: TypeKey((*T)(nil)),
		New:  func() ServiceProvider { return PT(new(T)) },
	}
}

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry keeps the ordered provider list and applies it to a
// container. Each named provider registers at most once per registry; list
// edits after Apply only register providers that have not run yet.
type ProviderRegistry struct {
	// apply serialises Apply, Add and Set so registration and list updates
	// are never interleaved.
	apply sync.Mutex

	mu         sync.Mutex
	app        *Container
	providers  []Provider
	applied    bool
	registered map[string]bool
}

// NewProviderRegistry creates a registry bound to app, seeded with providers.
func NewProviderRegistry(app *Container, providers ...Provider) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		providers:  append([]Provider(nil), providers...),
		registered: make(map[string]bool),
	}
}

// Add appends a provider. Once Apply has run, the provider is registered
// immediately unless a provider with the same name already was; on error
// the list is left unchanged.
func (r *ProviderRegistry) Add(p Provider) error {
	r.apply.Lock()
	defer r.apply.Unlock()

	if err := r.registerPending([]Provider{p}); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, p)
	return nil
}

// Set replaces the whole list, preserving input order. Once Apply has run,
// providers that have not registered yet are registered first; if one fails
// the previous list is kept.
func (r *ProviderRegistry) Set(providers []Provider) error {
	r.apply.Lock()
	defer r.apply.Unlock()

	if err := r.registerPending(providers); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append([]Provider(nil), providers...)
	return nil
}

// registerPending registers the providers in list that have not run yet.
// It does nothing before Apply.
func (r *ProviderRegistry) registerPending(list []Provider) error {
	if !r.Applied() {
		return nil
	}
	for _, p := range list {
		if r.isRegistered(p) {
			continue
		}
		if err := p.New().Register(r.app); err != nil {
			return err
		}
		r.markRegistered(p)
	}
	return nil
}

// List returns a copy of the ordered provider list.
func (r *ProviderRegistry) List() []Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Names returns the provider names in order.
func (r *ProviderRegistry) Names() []string {
	list := r.List()
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name
	}
	return names
}

// Apply instantiates every provider in order and runs its Register hook.
// The first error aborts and is returned as-is. Calling Apply again is a no-op.
func (r *ProviderRegistry) Apply() error {
	r.apply.Lock()
	defer r.apply.Unlock()

	r.mu.Lock()
	if r.applied {
		r.mu.Unlock()
		return nil
	}
	r.applied = true
	list := make([]Provider, len(r.providers))
	copy(list, r.providers)
	r.mu.Unlock()

	for _, p := range list {
		if err := p.New().Register(r.app); err != nil {
			return err
		}
		r.markRegistered(p)
	}
	return nil
}

// Applied returns true once Apply has been called.
func (r *ProviderRegistry) Applied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applied
}

// isRegistered reports whether a provider with p's name already ran.
// Unnamed providers are never considered registered.
func (r *ProviderRegistry) isRegistered(p Provider) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return p.Name != "" && r.registered[p.Name]
}

func (r *ProviderRegistry) markRegistered(p Provider) {
	if p.Name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered[p.Name] = true
}
