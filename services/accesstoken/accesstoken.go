// Package accesstoken fetches and caches the tenant access token every other
// API call is authorized with.
package accesstoken

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/oauth2"

	gohttp "github.com/km-arc/go-feishu/framework/http"
	"github.com/km-arc/go-feishu/framework/log"
)

const (
	// Endpoint issues tenant access tokens for self-built apps.
	Endpoint = "auth/v3/tenant_access_token/internal"

	// EarlyExpiry is how long before its expiry a cached token is refreshed.
	EarlyExpiry = 5 * time.Minute
)

// ErrMissingCredentials is returned when app_id or app_secret is empty.
var ErrMissingCredentials = errors.New("accesstoken: app_id and app_secret are required")

// AccessToken hands out the tenant access token, fetching a new one only
// when the cached token is within EarlyExpiry of expiring.
type AccessToken struct {
	appID     string
	appSecret string
	client    *gohttp.Client

	mu      sync.Mutex
	fetcher *fetcher
	source  oauth2.TokenSource
}

// New creates an AccessToken. A nil client uses gohttp.Shared().
func New(appID, appSecret string, client *gohttp.Client) *AccessToken {
	if client == nil {
		client = gohttp.Shared()
	}
	a := &AccessToken{appID: appID, appSecret: appSecret, client: client}
	a.fetcher = &fetcher{owner: a}
	a.source = oauth2.ReuseTokenSourceWithExpiry(nil, a.fetcher, EarlyExpiry)
	return a
}

// AppID returns the app the token is issued for.
func (a *AccessToken) AppID() string { return a.appID }

// Token returns a valid tenant access token.
func (a *AccessToken) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.fetcher.ctx = ctx
	defer func() { a.fetcher.ctx = nil }()

	tok, err := a.source.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Refresh fetches a new token regardless of the cached one.
func (a *AccessToken) Refresh(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tok, err := a.fetch(ctx)
	if err != nil {
		return "", err
	}
	a.source = oauth2.ReuseTokenSourceWithExpiry(tok, a.fetcher, EarlyExpiry)
	return tok.AccessToken, nil
}

// Invalidate drops the cached token; the next Token call fetches a new one.
func (a *AccessToken) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = oauth2.ReuseTokenSourceWithExpiry(nil, a.fetcher, EarlyExpiry)
}

// Call runs fn with a valid token. When the API rejects the token, it is
// invalidated and fn runs once more with a fresh one.
func (a *AccessToken) Call(ctx context.Context, fn func(token string) error) error {
	token, err := a.Token(ctx)
	if err != nil {
		return err
	}
	err = fn(token)
	if !gohttp.IsTokenInvalid(err) {
		return err
	}

	log.Warn("tenant access token rejected, refreshing", "app_id", a.appID, "error", err)
	if token, err = a.Refresh(ctx); err != nil {
		return err
	}
	return fn(token)
}

type tokenResponse struct {
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int64  `json:"expire"`
}

func (a *AccessToken) fetch(ctx context.Context) (*oauth2.Token, error) {
	if a.appID == "" || a.appSecret == "" {
		return nil, ErrMissingCredentials
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var res tokenResponse
	body := map[string]string{"app_id": a.appID, "app_secret": a.appSecret}
	if err := a.client.Post(ctx, Endpoint, nil, body, "", &res); err != nil {
		return nil, err
	}

	log.Debug("tenant access token fetched", "app_id", a.appID, "expire", res.Expire)
	return &oauth2.Token{
		AccessToken: res.TenantAccessToken,
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Duration(res.Expire) * time.Second),
	}, nil
}

// fetcher adapts fetch to oauth2.TokenSource. ctx is set by Token for the
// duration of one call.
type fetcher struct {
	owner *AccessToken
	ctx   context.Context
}

func (f *fetcher) Token() (*oauth2.Token, error) {
	return f.owner.fetch(f.ctx)
}
