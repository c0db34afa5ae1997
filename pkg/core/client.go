package core

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jk2pr/GoGit-KMP/pkg/auth"
	"github.com/jk2pr/GoGit-KMP/pkg/codec"
	"github.com/jk2pr/GoGit-KMP/pkg/config"
	"github.com/jk2pr/GoGit-KMP/pkg/errors"
	"github.com/jk2pr/GoGit-KMP/pkg/observe"
	"github.com/jk2pr/GoGit-KMP/pkg/transport/graphql"
	"github.com/jk2pr/GoGit-KMP/pkg/transport/rest"
)

// APIClient sends authorized, observed JSON requests.
// It is safe for concurrent use once created.
type APIClient struct {
	cfg      config.Client
	baseURL  *url.URL
	headers  http.Header
	codec    codec.JSON
	bearer   *auth.BearerAuth
	provider auth.TokenProvider

	// httpClient dispatches Send; authorization is a request stage there.
	// authedClient carries auth.Transport for callers that build their own
	// requests, such as the GraphQL client.
	httpClient   *http.Client
	authedClient *http.Client

	transport  http.RoundTripper
	logger     zerolog.Logger
	registerer prometheus.Registerer
	hooks      []observe.Hooks
	metrics    *observe.Metrics
}

// ClientOption defines config for APIClient
type ClientOption func(*APIClient)

// WithTransport replaces the network transport. Observability and
// authorization are still layered on top of it.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *APIClient) {
		c.transport = rt
	}
}

// WithLogger sets the logger used by the log hooks
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *APIClient) {
		c.logger = logger
	}
}

// WithRegisterer sets where metrics are registered when enabled
func WithRegisterer(reg prometheus.Registerer) ClientOption {
	return func(c *APIClient) {
		c.registerer = reg
	}
}

// WithTokenProvider overrides the provider built from the auth section
func WithTokenProvider(p auth.TokenProvider) ClientOption {
	return func(c *APIClient) {
		c.provider = p
	}
}

// WithHooks adds observability hooks next to the log and metrics hooks
func WithHooks(hooks ...observe.Hooks) ClientOption {
	return func(c *APIClient) {
		c.hooks = append(c.hooks, hooks...)
	}
}

// WithHeader adds a header to all requests
func WithHeader(key, value string) ClientOption {
	return func(c *APIClient) {
		c.headers.Set(key, value)
	}
}

// NewClient validates cfg and assembles the pipeline.
// Configuration problems are reported here and match errors.ErrConfiguration.
func NewClient(cfg config.Client, options ...ClientOption) (*APIClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrConfiguration, "parse base URL")
	}

	client := &APIClient{
		cfg:        cfg,
		baseURL:    base,
		headers:    make(http.Header),
		codec:      codec.JSON{Indent: cfg.PrettyPrint},
		logger:     log.Logger,
		registerer: prometheus.DefaultRegisterer,
	}
	for k, v := range cfg.DefaultHeaders {
		client.headers.Set(k, v)
	}
	if cfg.UserAgent != "" {
		client.headers.Set("User-Agent", cfg.UserAgent)
	}

	// apply all options from config
	for _, option := range options {
		option(client)
	}

	if client.provider == nil {
		if cfg.Auth.Type == "" {
			return nil, errors.WrapError(fmt.Errorf("no auth type and no token provider"), errors.ErrConfiguration, "create client")
		}
		client.provider, err = auth.CreateTokenProvider(&cfg.Auth)
		if err != nil {
			return nil, err
		}
	}
	client.bearer = auth.NewBearerAuth(client.provider)

	if client.transport == nil {
		client.transport = newBaseTransport(&cfg)
	}
	client.transport = newReadTimeoutTransport(client.transport, cfg.ReadTimeoutDuration())

	observed, err := client.observedTransport()
	if err != nil {
		return nil, err
	}

	checkRedirect := redirectPolicy(cfg.FollowRedirects, cfg.MaxRedirects)
	client.httpClient = &http.Client{
		Transport:     observed,
		CheckRedirect: checkRedirect,
	}
	client.authedClient = &http.Client{
		Transport:     auth.NewTransport(observed, client.bearer),
		CheckRedirect: checkRedirect,
	}

	return client, nil
}

func (c *APIClient) observedTransport() (http.RoundTripper, error) {
	level, err := observe.ParseLevel(string(c.cfg.Logging.Level))
	if err != nil {
		return nil, err
	}

	var redactor *observe.Redactor
	if !c.cfg.Logging.DisableRedaction {
		redactor = observe.NewRedactor(c.cfg.Logging.RedactFields)
	}

	hooks := []observe.Hooks{observe.LogHooks(c.logger, level, redactor)}
	if c.cfg.Metrics.Enabled {
		c.metrics, err = observe.NewMetrics(c.cfg.Metrics.Namespace, c.registerer)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, c.metrics.Hooks())
	}
	hooks = append(hooks, c.hooks...)

	return observe.NewTransport(c.transport, level, c.cfg.Logging.MaxBodyBytes, hooks...), nil
}

// newBaseTransport maps the connect timeout onto dialing and the TLS
// handshake, and the read timeout onto waiting for response headers.
// Body reads are bounded separately by readTimeoutTransport.
func newBaseTransport(cfg *config.Client) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeoutDuration(),
		KeepAlive: 30 * time.Second,
	}
	t.DialContext = dialer.DialContext
	t.TLSHandshakeTimeout = cfg.ConnectTimeoutDuration()
	t.ResponseHeaderTimeout = cfg.ReadTimeoutDuration()
	return t
}

func redirectPolicy(follow bool, limit int) func(*http.Request, []*http.Request) error {
	if !follow {
		return func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= limit {
			return fmt.Errorf("stopped after %d redirects", limit)
		}
		// net/http ignores the port here; auth.Transport does not
		if !strings.EqualFold(req.URL.Host, via[0].URL.Host) {
			req.Header.Del("Authorization")
		}
		return nil
	}
}

// Send runs req through the pipeline: default headers, base URL,
// authorization, body encoding, then dispatch. The token is fetched once
// per call; if that fails nothing is sent.
func (c *APIClient) Send(ctx context.Context, req *rest.Request) (*rest.Response, error) {
	if req == nil {
		return nil, errors.WrapError(fmt.Errorf("request is nil"), errors.ErrConfiguration, "send")
	}

	prepared, err := rest.Apply(req,
		rest.MergeDefaultHeaders(c.headers),
		rest.ResolveURL(c.baseURL),
		rest.Authorize(ctx, c.bearer),
		rest.EncodeBody(c.codec),
	)
	if err != nil {
		return nil, err
	}

	if prepared.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, prepared.Timeout)
		defer cancel()
	}

	httpReq, err := prepared.Build(ctx)
	if err != nil {
		return nil, err
	}

	return rest.Do(c.httpClient, httpReq)
}

// Get performs a GET request to the specified endpoint
func (c *APIClient) Get(ctx context.Context, endpoint string) (*rest.Response, error) {
	return c.Send(ctx, rest.NewRequest(http.MethodGet, endpoint))
}

// Post performs a POST request with payload encoded as JSON
func (c *APIClient) Post(ctx context.Context, endpoint string, payload any) (*rest.Response, error) {
	return c.Send(ctx, rest.NewRequest(http.MethodPost, endpoint).WithPayload(payload))
}

// Put performs a PUT request with payload encoded as JSON
func (c *APIClient) Put(ctx context.Context, endpoint string, payload any) (*rest.Response, error) {
	return c.Send(ctx, rest.NewRequest(http.MethodPut, endpoint).WithPayload(payload))
}

// Patch performs a PATCH request with payload encoded as JSON
func (c *APIClient) Patch(ctx context.Context, endpoint string, payload any) (*rest.Response, error) {
	return c.Send(ctx, rest.NewRequest(http.MethodPatch, endpoint).WithPayload(payload))
}

// Delete performs a DELETE request
func (c *APIClient) Delete(ctx context.Context, endpoint string) (*rest.Response, error) {
	return c.Send(ctx, rest.NewRequest(http.MethodDelete, endpoint))
}

// SendJSON sends req and decodes the body into T.
// An empty body yields the zero T. When decoding fails the response is
// still returned together with a *errors.DecodeError.
func SendJSON[T any](ctx context.Context, c *APIClient, req *rest.Request) (T, *rest.Response, error) {
	var out T
	resp, err := c.Send(ctx, req)
	if err != nil {
		return out, nil, err
	}
	if len(resp.Body) == 0 {
		return out, resp, nil
	}
	if err := resp.Decode(&out); err != nil {
		return out, resp, err
	}
	return out, resp, nil
}

// HTTPClient returns an *http.Client that authorizes and observes every
// request the same way Send does.
func (c *APIClient) HTTPClient() *http.Client {
	return c.authedClient
}

// GraphQL returns a client for the configured GraphQL endpoint that shares
// this client's transport.
func (c *APIClient) GraphQL(options ...graphql.ClientOption) *graphql.Client {
	return graphql.NewClient(c.cfg.GraphQLEndpoint, c.authedClient, options...)
}

// Config returns a copy of the configuration the client was built with
func (c *APIClient) Config() config.Client {
	return c.cfg
}

// Metrics returns the metrics hooks, or nil when metrics are disabled
func (c *APIClient) Metrics() *observe.Metrics {
	return c.metrics
}
