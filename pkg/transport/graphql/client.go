package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gql "github.com/shurcooL/graphql"

	"github.com/jk2pr/GoGit-KMP/pkg/codec"
	"github.com/jk2pr/GoGit-KMP/pkg/errors"
	"github.com/jk2pr/GoGit-KMP/pkg/transport/rest"
)

// Client executes GraphQL operations over an *http.Client, usually the
// authorized one returned by core.APIClient.HTTPClient.
type Client struct {
	endpoint   string
	httpClient *http.Client
	headers    map[string]string
	codec      codec.JSON
	typed      *gql.Client
}

// NewClient wraps httpClient for the given endpoint.
func NewClient(endpoint string, httpClient *http.Client, opts ...ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
	c.ApplyOptions(opts...)

	typedHTTP := c.httpClient
	if len(c.headers) > 0 {
		copied := *c.httpClient
		copied.Transport = &headerTransport{base: c.httpClient.Transport, headers: c.headers}
		typedHTTP = &copied
	}
	c.typed = gql.NewClient(endpoint, typedHTTP)
	return c
}

// Endpoint returns the GraphQL endpoint URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Query runs a typed query. q is a pointer to a struct whose shape and
// `graphql` tags define the selection set.
func (c *Client) Query(ctx context.Context, q any, variables map[string]any) error {
	if err := c.typed.Query(ctx, q, variables); err != nil {
		return classify(err, "query")
	}
	return nil
}

// Mutate runs a typed mutation. See Query.
func (c *Client) Mutate(ctx context.Context, m any, variables map[string]any) error {
	if err := c.typed.Mutate(ctx, m, variables); err != nil {
		return classify(err, "mutate")
	}
	return nil
}

// Execute posts a raw query document and decodes the "data" member into out,
// which may be nil. Server reported errors are returned as Errors wrapped
// with errors.ErrGraphQL; data is still decoded when present.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any, out any) error {
	b := NewBuilder(c.endpoint, query, WithVariables(variables), WithHeaders(c.headers))
	_, err := c.Do(ctx, b, out)
	return err
}

// Do sends the request built by b and returns the raw response as well.
func (c *Client) Do(ctx context.Context, b *Builder, out any) (*rest.Response, error) {
	req, err := b.Build(ctx, c.codec)
	if err != nil {
		return nil, err
	}

	resp, err := rest.Do(c.httpClient, req)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := resp.Decode(&env); err != nil {
		if !resp.IsSuccess() {
			return resp, errors.WrapError(fmt.Errorf("unexpected status %d", resp.StatusCode), errors.ErrGraphQL, "execute")
		}
		return resp, err
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := c.codec.Decode(env.Data, out); err != nil {
			return resp, &errors.DecodeError{StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
		}
	}

	if len(env.Errors) > 0 {
		return resp, errors.WrapError(env.Errors, errors.ErrGraphQL, "execute")
	}
	if !resp.IsSuccess() {
		return resp, errors.WrapError(fmt.Errorf("unexpected status %d", resp.StatusCode), errors.ErrGraphQL, "execute")
	}
	return resp, nil
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors Errors          `json:"errors"`
}

// Location points into the query document
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Error is one entry of a GraphQL "errors" list
type Error struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e Error) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Path))
	for i, p := range e.Path {
		parts[i] = fmt.Sprint(p)
	}
	return fmt.Sprintf("%s (path: %s)", e.Message, strings.Join(parts, "."))
}

// Errors is the "errors" list of a response
type Errors []Error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// classify keeps auth and transport failures recognisable and files
// everything else under ErrGraphQL.
func classify(err error, op string) error {
	if errors.Is(err, errors.ErrAuthUnavailable) {
		return err
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return &errors.TransportError{Method: http.MethodPost, URL: ue.URL, Err: err}
	}
	return errors.WrapError(err, errors.ErrGraphQL, op)
}

// headerTransport adds fixed headers to requests made by the typed client
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return base.RoundTrip(req)
}
