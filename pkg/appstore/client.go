// Package appstore is a client for the appstore HTTP API.
//
// The Client methods GetUserData, SetUserData and Submit transparently
// re-authenticate once when the supplied token is rejected; see WithReauth.
package appstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/appstore/internal/httpclient"
)

const (
	endpointAuth   = "auth"
	endpointGet    = "get"
	endpointSet    = "set"
	endpointSubmit = "submit"
)

// Option customizes a Client.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	httpClient *http.Client
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHTTPClient replaces the underlying HTTP client. Its Timeout bounds every round trip.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// Client talks to one appstore deployment on behalf of one application/user pair.
// It holds no token state and is safe for concurrent use.
type Client struct {
	cfg     Config
	baseURL string
	logger  *zap.Logger
	exec    *httpclient.Executor
	raw     *Operations

	get    Op[GetParams]
	set    Op[SetParams]
	submit Op[SubmitParams]
}

// NewClient validates cfg and constructs a Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	baseURL, err := cfg.Endpoint()
	if err != nil {
		return nil, err
	}

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		o.httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		cfg:     cfg,
		baseURL: baseURL,
		logger:  o.logger,
		exec:    httpclient.New(o.logger, o.httpClient, "appstore"),
	}
	c.raw = &Operations{c: c}
	c.get = WithReauth[GetParams](c, c.raw.GetUserData)
	c.set = WithReauth[SetParams](c, c.raw.SetUserData)
	c.submit = WithReauth[SubmitParams](c, c.raw.Submit)
	return c, nil
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config { return c.cfg }

// Raw exposes the single-attempt operations, without re-authentication.
func (c *Client) Raw() *Operations { return c.raw }

// Authenticate exchanges the configured credentials for a bearer token.
// It mutates no client state.
func (c *Client) Authenticate(ctx context.Context) (Authorization, error) {
	body := authRequest{
		APIKey:  c.cfg.APIKey,
		AppSlug: c.cfg.AppSlug,
		UserID:  c.cfg.UserID,
	}

	var auth Authorization
	if err := c.exec.PostJSON(ctx, endpointAuth, c.baseURL+endpointAuth, body, &auth); err != nil {
		return Authorization{}, err
	}
	if auth.Token == "" {
		return Authorization{}, fmt.Errorf("%s: %w", endpointAuth, ErrMissingToken)
	}

	c.logger.Debug("appstore.authenticated",
		zap.String("app", c.cfg.AppSlug),
		zap.String("user", c.cfg.UserID))
	return auth, nil
}

// GetUserData reads key from the user's datastore, re-authenticating once on rejection.
func (c *Client) GetUserData(ctx context.Context, p GetParams) (Response, error) {
	return c.get(ctx, p)
}

// SetUserData writes key=value to the user's datastore, re-authenticating once on rejection.
func (c *Client) SetUserData(ctx context.Context, p SetParams) (Response, error) {
	return c.set(ctx, p)
}

// Submit posts the user's results, re-authenticating once on rejection.
func (c *Client) Submit(ctx context.Context, p SubmitParams) (Response, error) {
	return c.submit(ctx, p)
}

// Operations are the token-scoped calls performed exactly once.
// They fail only with the executor's error kinds.
type Operations struct {
	c *Client
}

// GetUserData POSTs {key, token} to the get endpoint.
func (o *Operations) GetUserData(ctx context.Context, p GetParams) (Response, error) {
	return o.c.call(ctx, endpointGet, getRequest{Key: p.Key, Token: p.Token})
}

// SetUserData POSTs {key, token, value} to the set endpoint.
func (o *Operations) SetUserData(ctx context.Context, p SetParams) (Response, error) {
	return o.c.call(ctx, endpointSet, setRequest{Key: p.Key, Token: p.Token, Value: p.Value})
}

// Submit POSTs {token, results} to the submit endpoint.
func (o *Operations) Submit(ctx context.Context, p SubmitParams) (Response, error) {
	return o.c.call(ctx, endpointSubmit, submitRequest{Token: p.Token, Results: p.Results})
}

func (c *Client) call(ctx context.Context, endpoint string, body any) (Response, error) {
	var raw json.RawMessage
	if err := c.exec.PostJSON(ctx, endpoint, c.baseURL+endpoint, body, &raw); err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Response{}, nil
	}
	if raw[0] != '{' {
		c.logger.Warn("appstore.non_object_body",
			zap.String("endpoint", endpoint),
			zap.Int("bytes", len(raw)))
		return nil, &BodyError{Endpoint: endpoint, Body: raw}
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: decode failed: %w", endpoint, err)
	}
	return out, nil
}
