package app

import (
	"runtime/debug"

	"github.com/km-arc/go-feishu/framework/config"
	"github.com/km-arc/go-feishu/framework/container"
	gohttp "github.com/km-arc/go-feishu/framework/http"
	"github.com/km-arc/go-feishu/framework/log"
	"github.com/km-arc/go-feishu/framework/providers"
	"github.com/km-arc/go-feishu/services/accesstoken"
	"github.com/km-arc/go-feishu/services/contact"
	"github.com/km-arc/go-feishu/services/im"
)

// Application is the SDK entry point. It embeds the service container, so
// Get, Set and Has are available directly:
//
//	application, err := app.New(map[string]any{
//	    "app_id":     "cli_a1b2c3",
//	    "app_secret": "…",
//	    "log":        map[string]any{"file": "/var/log/feishu.log"},
//	})
//	messenger, err := application.Im()
type Application struct {
	*container.Container
	registry *container.ProviderRegistry
}

// Option customises the provider list and service decorators before
// construction applies them.
type Option func(*settings)

type settings struct {
	providers []container.Provider
	extenders []extension
}

type extension struct {
	id string
	fn container.Extender
}

// WithProviders replaces the default provider list.
func WithProviders(list ...container.Provider) Option {
	return func(s *settings) { s.providers = append([]container.Provider(nil), list...) }
}

// WithProvider appends a provider to the list.
func WithProvider(p container.Provider) Option {
	return func(s *settings) { s.providers = append(s.providers, p) }
}

// WithExtender decorates the service bound to id once providers are applied.
//
//	app.WithExtender("http", func(v any, _ *container.Container) any {
//	    return gohttp.NewClient(gohttp.WithTransport(recording))
//	})
func WithExtender(id string, fn container.Extender) Option {
	return func(s *settings) { s.extenders = append(s.extenders, extension{id, fn}) }
}

// New builds an Application from a raw configuration blob. The steps run in
// a fixed order: bind config, enable debug diagnostics, apply providers,
// bind request and http, register extenders, select the logger, set
// transport defaults.
// Any failure aborts construction and no Application is returned.
func New(raw map[string]any, opts ...Option) (*Application, error) {
	s := &settings{providers: providers.Defaults()}
	for _, opt := range opts {
		opt(s)
	}

	c := container.New()
	a := &Application{Container: c}

	c.Singleton("config", func(*container.Container) (any, error) {
		return config.New(raw)
	})

	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	if cfg.Bool("debug") {
		debug.SetTraceback("all")
	}

	a.registry = container.NewProviderRegistry(c, s.providers...)
	if err := a.registry.Apply(); err != nil {
		return nil, err
	}

	c.Singleton("request", func(*container.Container) (any, error) {
		return gohttp.CaptureRequest(), nil
	})
	c.Instance("http", gohttp.Shared())

	for _, ext := range s.extenders {
		c.Extend(ext.id, ext.fn)
	}

	if err := initializeLogger(cfg); err != nil {
		return nil, err
	}

	if err := applyTransportDefaults(cfg); err != nil {
		return nil, err
	}

	log.Debug("application ready", "providers", a.registry.Names())
	return a, nil
}

// ── Providers ─────────────────────────────────────────────────────────────────

// AddProvider appends a provider. The Application is already constructed, so
// the provider registers immediately.
func (a *Application) AddProvider(p container.Provider) error {
	return a.registry.Add(p)
}

// SetProviders replaces the provider list. Entries whose name is already
// registered are kept as they are and only new ones register; when one fails
// the previous list stays in place.
func (a *Application) SetProviders(list []container.Provider) error {
	return a.registry.Set(list)
}

// Providers returns the provider list in order.
func (a *Application) Providers() []container.Provider {
	return a.registry.List()
}

// ── Typed accessors ───────────────────────────────────────────────────────────

// Config resolves the configuration repository.
func (a *Application) Config() (*config.Repository, error) {
	return container.Resolve[*config.Repository](a.Container, "config")
}

// AccessToken resolves the tenant access token cache.
func (a *Application) AccessToken() (*accesstoken.AccessToken, error) {
	return container.Resolve[*accesstoken.AccessToken](a.Container, "access_token")
}

// Contact resolves the contact directory client.
func (a *Application) Contact() (*contact.Contact, error) {
	return container.Resolve[*contact.Contact](a.Container, "contact")
}

// Im resolves the messaging client.
func (a *Application) Im() (*im.Im, error) {
	return container.Resolve[*im.Im](a.Container, "im")
}

// Request resolves the snapshot of the request being served.
func (a *Application) Request() (*gohttp.Request, error) {
	return container.Resolve[*gohttp.Request](a.Container, "request")
}

// Logger returns the process-wide logger.
func (a *Application) Logger() *log.Logger { return log.Current() }

// applyTransportDefaults sets the process-wide HTTP options from the "http"
// mapping, or the older "guzzle" one.
func applyTransportDefaults(cfg *config.Repository) error {
	raw := cfg.Get("http")
	if raw == nil {
		raw = cfg.Get("guzzle")
	}
	opts, err := gohttp.DecodeOptions(raw)
	if err != nil {
		return err
	}
	gohttp.SetDefaultOptions(opts)
	return nil
}
