// Package container provides the service container and provider registry
// every go-feishu module is resolved from.
//
// # Overview
//
// The container maps string ids to values. A value is either bound directly
// or produced by a Factory that runs on first access and is cached. Because
// Go has no runtime constructor reflection, providers are explicit Provider
// values carrying a zero-argument constructor.
//
// # Container Lifecycle
//
//  1. Create: c := container.New()
//  2. Apply providers: container.NewProviderRegistry(c, providers...).Apply()
//  3. Resolve lazily: c.Get("im")
//
// # Bindings
//
//	// Shared: created once on first Get, reused
//	c.Set("config", container.Factory(func(c *container.Container) (any, error) {
//	    return config.New(raw)
//	}))
//
//	// Transient: new instance every Get
//	c.Bind("request_id", func(c *container.Container) (any, error) { return uuid.NewString(), nil })
//
//	// Pre-built value
//	c.Set("app_id", "cli_a1b2c3")
//
//	// Alias
//	c.Alias("access_token", "token")
//
// # Resolving
//
//	raw, err := c.Get("im")
//	messenger, err := container.Resolve[*im.Im](c, "im")
//
// Resolving an id that was never bound returns an error wrapping
// ErrUnknownIdentifier.
//
// # Service Providers
//
//	type ImServiceProvider struct{}
//
//	func (p *ImServiceProvider) Register(app *container.Container) error {
//	    app.Singleton("im", func(c *container.Container) (any, error) {
//	        token, err := container.Resolve[*accesstoken.AccessToken](c, "access_token")
//	        if err != nil {
//	            return nil, err
//	        }
//	        return im.New(token, nil), nil
//	    })
//	    return nil
//	}
//
//	registry := container.NewProviderRegistry(c, container.ProviderOf[ImServiceProvider]())
//	if err := registry.Apply(); err != nil { ... }
//
// Providers run in list order; a later provider may override bindings made by
// an earlier one. The first Register error aborts Apply and is returned
// unmodified.
package container
