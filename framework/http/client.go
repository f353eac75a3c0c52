package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/km-arc/go-feishu/framework/log"
)

const requestIDHeader = "X-Request-Id"

// Call describes one outbound API call. Path is relative to the base URI.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Token is sent as a bearer Authorization header when set.
	Token  string
	Header http.Header
}

// Client sends Calls to the Feishu API. Unless built WithOptions, it reads
// the process-wide DefaultOptions on every call, so SetDefaultOptions
// affects all later calls.
type Client struct {
	transport  http.RoundTripper
	pinned     *Options
	newBackOff func() backoff.BackOff
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithTransport sets the RoundTripper used for every request.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) { c.transport = rt }
}

// WithOptions pins the client to o instead of the process-wide defaults.
func WithOptions(o Options) ClientOption {
	return func(c *Client) {
		o = withBuiltins(o)
		c.pinned = &o
	}
}

// WithBackOff sets the policy used between retries.
func WithBackOff(newBackOff func() backoff.BackOff) ClientOption {
	return func(c *Client) { c.newBackOff = newBackOff }
}

// NewClient creates a Client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		transport:  http.DefaultTransport,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var shared = NewClient()

// Shared returns the process-wide client.
func Shared() *Client { return shared }

// Options returns the options the next call will use.
func (c *Client) Options() Options {
	if c.pinned != nil {
		o := *c.pinned
		o.Headers = maps.Clone(o.Headers)
		return o
	}
	return DefaultOptions()
}

// Get issues a GET call.
func (c *Client) Get(ctx context.Context, path string, query url.Values, token string, out any) error {
	return c.Do(ctx, Call{Method: http.MethodGet, Path: path, Query: query, Token: token}, out)
}

// Post issues a POST call with a JSON body.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body any, token string, out any) error {
	return c.Do(ctx, Call{Method: http.MethodPost, Path: path, Query: query, Body: body, Token: token}, out)
}

// Do sends call and decodes the whole response body into out (when not nil).
// A non-zero Feishu code is returned as *APIError. Transport errors, 5xx and
// 429 responses are retried up to Options.Retries times.
func (c *Client) Do(ctx context.Context, call Call, out any) error {
	opts := c.Options()

	target, err := resolveURL(opts.BaseURI, call.Path, call.Query)
	if err != nil {
		return err
	}

	var payload []byte
	if call.Body != nil {
		if payload, err = json.Marshal(call.Body); err != nil {
			return fmt.Errorf("http: encode body: %w", err)
		}
	}

	requestID := uuid.NewString()
	client := &http.Client{Transport: c.transport, Timeout: opts.TimeoutDuration()}

	log.Debug("feishu api call", "method", call.Method, "path", call.Path, "request_id", requestID)

	res, err := backoff.Retry(ctx, func() (response, error) {
		req, err := c.newRequest(ctx, call, target, payload, opts, requestID)
		if err != nil {
			return response{}, backoff.Permanent(err)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return response{}, backoff.Permanent(ctx.Err())
			}
			log.Warn("feishu api transport error", "path", call.Path, "request_id", requestID, "error", err)
			return response{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return response{}, err
		}

		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			log.Warn("feishu api retryable status", "path", call.Path, "status", resp.StatusCode, "request_id", requestID)
			return response{}, &APIError{HTTPStatus: resp.StatusCode, Msg: snippet(body), RequestID: requestID}
		}
		return response{status: resp.StatusCode, body: body}, nil
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(opts.Retries)+1),
	)
	if err != nil {
		return err
	}

	return decode(res, requestID, out)
}

type response struct {
	status int
	body   []byte
}

func (c *Client) newRequest(ctx context.Context, call Call, target string, payload []byte, opts Options, requestID string) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	method := call.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}

	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	for k, values := range call.Header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if call.Token != "" {
		req.Header.Set("Authorization", "Bearer "+call.Token)
	}
	req.Header.Set(requestIDHeader, requestID)
	return req, nil
}

func decode(res response, requestID string, out any) error {
	var envelope struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(res.body, &envelope); err != nil {
		if res.status >= http.StatusBadRequest {
			return &APIError{HTTPStatus: res.status, Msg: snippet(res.body), RequestID: requestID}
		}
		return fmt.Errorf("http: decode response: %w", err)
	}
	if envelope.Code != 0 {
		return &APIError{Code: envelope.Code, Msg: envelope.Msg, HTTPStatus: res.status, RequestID: requestID}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return fmt.Errorf("http: decode response: %w", err)
	}
	return nil
}

func resolveURL(base, path string, query url.Values) (string, error) {
	if base == "" {
		return "", errors.New("http: empty base URI")
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base + strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("http: build url: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func snippet(body []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
