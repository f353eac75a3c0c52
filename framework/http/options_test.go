package http_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gohttp "github.com/km-arc/go-feishu/framework/http"
)

func TestDecodeOptions_Defaults(t *testing.T) {
	t.Parallel()

	opts, err := gohttp.DecodeOptions(nil)
	require.NoError(t, err)

	assert.InDelta(t, 5.0, opts.Timeout, 0.0001)
	assert.Equal(t, 5*time.Second, opts.TimeoutDuration())
	assert.Equal(t, gohttp.DefaultBaseURI, opts.BaseURI)
	assert.Zero(t, opts.Retries)
}

func TestDecodeOptions_WeaklyTyped(t *testing.T) {
	t.Parallel()

	opts, err := gohttp.DecodeOptions(map[string]any{
		"timeout": "2.5",
		"retries": "2",
		"headers": map[string]any{"X-Tenant": "acme"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2500*time.Millisecond, opts.TimeoutDuration())
	assert.Equal(t, 2, opts.Retries)
	assert.Equal(t, "acme", opts.Headers["X-Tenant"])
	assert.Equal(t, gohttp.DefaultBaseURI, opts.BaseURI)
}

func TestDecodeOptions_Invalid(t *testing.T) {
	t.Parallel()

	_, err := gohttp.DecodeOptions(map[string]any{"timeout": -1})
	assert.ErrorIs(t, err, gohttp.ErrInvalidOptions)

	_, err = gohttp.DecodeOptions("not a mapping")
	assert.ErrorIs(t, err, gohttp.ErrInvalidOptions)
}

func TestDecodeOptions_ExplicitZeroTimeout(t *testing.T) {
	t.Cleanup(gohttp.ResetDefaultOptions)

	opts, err := gohttp.DecodeOptions(map[string]any{"timeout": 0})
	require.NoError(t, err)
	assert.Zero(t, opts.Timeout)
	assert.Zero(t, opts.TimeoutDuration())
	assert.Equal(t, gohttp.DefaultBaseURI, opts.BaseURI)

	gohttp.SetDefaultOptions(opts)
	assert.Zero(t, gohttp.DefaultOptions().Timeout)

	absent, err := gohttp.DecodeOptions(map[string]any{"retries": 1})
	require.NoError(t, err)
	assert.InDelta(t, gohttp.DefaultTimeout, absent.Timeout, 0.0001)

	gohttp.ResetDefaultOptions()
	assert.InDelta(t, gohttp.DefaultTimeout, gohttp.DefaultOptions().Timeout, 0.0001)
}
