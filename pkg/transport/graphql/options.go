package graphql

import (
	"net/http"
	"time"

	"github.com/jk2pr/GoGit-KMP/pkg/codec"
)

// BuilderOption configures the Builder.
type BuilderOption func(*Builder)

// WithHeader adds a header to every GraphQL request.
func WithHeader(key, value string) BuilderOption {
	return func(b *Builder) {
		if b.Headers == nil {
			b.Headers = make(map[string]string)
		}
		b.Headers[key] = value
	}
}

// WithHeaders adds multiple headers to every GraphQL request.
func WithHeaders(headers map[string]string) BuilderOption {
	return func(b *Builder) {
		if b.Headers == nil {
			b.Headers = make(map[string]string)
		}
		for k, v := range headers {
			b.Headers[k] = v
		}
	}
}

// WithOperationName selects the operation in a multi-operation document.
func WithOperationName(name string) BuilderOption {
	return func(b *Builder) {
		b.OperationName = name
	}
}

// WithVariable sets a single variable.
func WithVariable(key string, value any) BuilderOption {
	return func(b *Builder) {
		if b.Variables == nil {
			b.Variables = make(map[string]any)
		}
		b.Variables[key] = value
	}
}

// WithVariables sets multiple variables.
func WithVariables(variables map[string]any) BuilderOption {
	return func(b *Builder) {
		if b.Variables == nil {
			b.Variables = make(map[string]any)
		}
		for k, v := range variables {
			b.Variables[k] = v
		}
	}
}

// ApplyOptions applies BuilderOption functions in order.
func (b *Builder) ApplyOptions(opts ...BuilderOption) {
	for _, opt := range opts {
		opt(b)
	}
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithTimeout bounds every operation. The given *http.Client is copied, not
// modified.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		copied := *c.httpClient
		copied.Timeout = timeout
		c.httpClient = &copied
	}
}

// WithUserAgent sets the User-Agent header for requests.
func WithUserAgent(userAgent string) ClientOption {
	return WithClientHeader("User-Agent", userAgent)
}

// WithClientHeader adds a header to every operation of the client.
func WithClientHeader(key, value string) ClientOption {
	return func(c *Client) {
		if c.headers == nil {
			c.headers = make(map[string]string)
		}
		c.headers[http.CanonicalHeaderKey(key)] = value
	}
}

// WithPrettyPrint indents request bodies, which only matters for logs.
func WithPrettyPrint(indent bool) ClientOption {
	return func(c *Client) {
		c.codec = codec.JSON{Indent: indent}
	}
}

// ApplyOptions applies ClientOption functions in order.
func (c *Client) ApplyOptions(opts ...ClientOption) {
	for _, opt := range opts {
		opt(c)
	}
}
