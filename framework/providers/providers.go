package providers

import (
	"github.com/km-arc/go-feishu/framework/config"
	"github.com/km-arc/go-feishu/framework/container"
	gohttp "github.com/km-arc/go-feishu/framework/http"
	"github.com/km-arc/go-feishu/services/accesstoken"
	"github.com/km-arc/go-feishu/services/contact"
	"github.com/km-arc/go-feishu/services/event"
	"github.com/km-arc/go-feishu/services/im"
)

// Defaults returns the providers every Application applies unless told
// otherwise, in application order.
func Defaults() []container.Provider {
	return []container.Provider{
		container.ProviderOf[AccessTokenServiceProvider](),
		container.ProviderOf[ContactServiceProvider](),
		container.ProviderOf[ImServiceProvider](),
	}
}

// ── AccessTokenServiceProvider ────────────────────────────────────────────────

// AccessTokenServiceProvider binds the tenant access token cache.
//
// Bound ids:
//   - "access_token" → *accesstoken.AccessToken, rebuilt when "http" is rebound
//   - "token"        → alias of "access_token"
//
// Configuration keys read from "config":
//   - app_id, app_secret
type AccessTokenServiceProvider struct{}

func (p *AccessTokenServiceProvider) Register(app *container.Container) error {
	rebuildOn(app, "access_token", func(c *container.Container) (any, error) {
		cfg, client, err := base(c)
		if err != nil {
			return nil, err
		}
		return accesstoken.New(cfg.String("app_id"), cfg.String("app_secret"), client), nil
	}, "http")
	app.Alias("access_token", "token")
	return nil
}

// ── ContactServiceProvider ────────────────────────────────────────────────────

// ContactServiceProvider binds the contact directory client.
//
// Bound ids:
//   - "contact" → *contact.Contact, rebuilt when "access_token" or "http" is rebound
//
// Configuration keys read from "config":
//   - contact.cache_ttl: seconds or a duration string (default: 5m)
type ContactServiceProvider struct{}

func (p *ContactServiceProvider) Register(app *container.Container) error {
	rebuildOn(app, "contact", func(c *container.Container) (any, error) {
		cfg, client, err := base(c)
		if err != nil {
			return nil, err
		}
		token, err := container.Resolve[*accesstoken.AccessToken](c, "access_token")
		if err != nil {
			return nil, err
		}
		return contact.New(token, client, cfg.Duration("contact.cache_ttl")), nil
	}, "access_token", "http")
	return nil
}

// ── ImServiceProvider ─────────────────────────────────────────────────────────

// ImServiceProvider binds the messaging client.
//
// Bound ids:
//   - "im" → *im.Im, rebuilt when "access_token" or "http" is rebound
type ImServiceProvider struct{}

func (p *ImServiceProvider) Register(app *container.Container) error {
	rebuildOn(app, "im", func(c *container.Container) (any, error) {
		_, client, err := base(c)
		if err != nil {
			return nil, err
		}
		token, err := container.Resolve[*accesstoken.AccessToken](c, "access_token")
		if err != nil {
			return nil, err
		}
		return im.New(token, client), nil
	}, "access_token", "http")
	return nil
}

// ── EventServiceProvider ──────────────────────────────────────────────────────

// EventServiceProvider binds the event callback dispatcher. It is not part
// of Defaults; add it when the process serves callbacks.
//
// Bound ids:
//   - "event" → *event.Dispatcher
//
// Configuration keys read from "config":
//   - event.verification_token
//   - event.dedupe_ttl: seconds or a duration string (default: 10m)
type EventServiceProvider struct{}

func (p *EventServiceProvider) Register(app *container.Container) error {
	app.Singleton("event", func(c *container.Container) (any, error) {
		cfg, err := container.Resolve[*config.Repository](c, "config")
		if err != nil {
			return nil, err
		}
		return event.NewDispatcher(
			cfg.String("event.verification_token"),
			cfg.Duration("event.dedupe_ttl"),
		), nil
	})
	return nil
}

// rebuildOn binds id as a singleton and binds it again whenever one of deps is
// rebound after id was resolved, so the next resolution picks up the new
// dependency. Rebinding id in turn notifies its own dependents.
func rebuildOn(app *container.Container, id string, factory container.Factory, deps ...string) {
	app.Singleton(id, factory)
	for _, dep := range deps {
		app.Rebinding(dep, func(any) {
			if app.Resolved(id) {
				app.Singleton(id, factory)
			}
		})
	}
}

// base resolves the configuration and API client every service needs.
func base(c *container.Container) (*config.Repository, *gohttp.Client, error) {
	cfg, err := container.Resolve[*config.Repository](c, "config")
	if err != nil {
		return nil, nil, err
	}
	client, err := container.Resolve[*gohttp.Client](c, "http")
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}
