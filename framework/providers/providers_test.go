package providers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-feishu/framework/config"
	"github.com/km-arc/go-feishu/framework/container"
	gohttp "github.com/km-arc/go-feishu/framework/http"
	"github.com/km-arc/go-feishu/framework/providers"
	"github.com/km-arc/go-feishu/services/accesstoken"
	"github.com/km-arc/go-feishu/services/contact"
	"github.com/km-arc/go-feishu/services/event"
	"github.com/km-arc/go-feishu/services/im"
)

func newContainer(t *testing.T, withHTTP bool) *container.Container {
	t.Helper()
	c := container.New()
	c.Instance("config", config.MustNew(map[string]any{
		"app_id":     "cli_1",
		"app_secret": "secret",
		"event":      map[string]any{"verification_token": "vt"},
	}))
	if withHTTP {
		c.Instance("http", gohttp.NewClient())
	}
	return c
}

func TestDefaults_Order(t *testing.T) {
	t.Parallel()

	names := make([]string, 0, 3)
	for _, p := range providers.Defaults() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"github.com/km-arc/go-feishu/framework/providers.AccessTokenServiceProvider",
		"github.com/km-arc/go-feishu/framework/providers.ContactServiceProvider",
		"github.com/km-arc/go-feishu/framework/providers.ImServiceProvider",
	}, names)
}

func TestDefaults_BindLazily(t *testing.T) {
	t.Parallel()

	c := newContainer(t, true)
	require.NoError(t, container.NewProviderRegistry(c, providers.Defaults()...).Apply())

	for _, id := range []string{"access_token", "token", "contact", "im"} {
		assert.True(t, c.Has(id), id)
		assert.False(t, c.Resolved(id), id)
	}

	token, err := container.Resolve[*accesstoken.AccessToken](c, "token")
	require.NoError(t, err)
	assert.Equal(t, "cli_1", token.AppID())
	assert.Same(t, token, container.MustResolve[*accesstoken.AccessToken](c, "access_token"))

	_, err = container.Resolve[*contact.Contact](c, "contact")
	assert.NoError(t, err)
	_, err = container.Resolve[*im.Im](c, "im")
	assert.NoError(t, err)
}

func TestServices_NeedHTTPClient(t *testing.T) {
	t.Parallel()

	c := newContainer(t, false)
	require.NoError(t, container.NewProviderRegistry(c, providers.Defaults()...).Apply())

	_, err := c.Get("im")
	assert.ErrorIs(t, err, container.ErrUnknownIdentifier)
}

func TestEventServiceProvider(t *testing.T) {
	t.Parallel()

	c := newContainer(t, false)
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Add(container.ProviderOf[providers.EventServiceProvider]()))
	require.NoError(t, reg.Apply())

	d, err := container.Resolve[*event.Dispatcher](c, "event")
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestDefaults_RebuildWhenHTTPRebound(t *testing.T) {
	t.Parallel()

	c := newContainer(t, true)
	require.NoError(t, container.NewProviderRegistry(c, providers.Defaults()...).Apply())

	token := container.MustResolve[*accesstoken.AccessToken](c, "access_token")
	messenger := container.MustResolve[*im.Im](c, "im")

	c.Instance("http", gohttp.NewClient())

	assert.False(t, c.Resolved("im"), "im must rebuild lazily")
	assert.False(t, c.Resolved("contact"), "contact was never resolved")
	assert.NotSame(t, token, container.MustResolve[*accesstoken.AccessToken](c, "access_token"))
	assert.NotSame(t, messenger, container.MustResolve[*im.Im](c, "im"))
}

func TestDefaults_OnlyDeclaredDependenciesRebuild(t *testing.T) {
	t.Parallel()

	c := newContainer(t, true)
	require.NoError(t, container.NewProviderRegistry(c, providers.Defaults()...).Apply())

	messenger := container.MustResolve[*im.Im](c, "im")
	c.Instance("config", config.MustNew(map[string]any{"app_id": "cli_2"}))

	assert.Same(t, messenger, container.MustResolve[*im.Im](c, "im"))
}
