package graphql

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jk2pr/GoGit-KMP/pkg/codec"
	"github.com/jk2pr/GoGit-KMP/pkg/errors"
	"github.com/jk2pr/GoGit-KMP/pkg/transport/rest"
)

// Builder constructs GraphQL requests.
type Builder struct {
	Endpoint      string
	Query         string
	OperationName string
	Variables     map[string]any
	Headers       map[string]string
}

// payload is the POST body of a GraphQL operation
type payload struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// NewBuilder sets up a GraphQL Builder.
// Endpoint is the full URL of your GraphQL endpoint.
func NewBuilder(endpoint, query string, opts ...BuilderOption) *Builder {
	b := &Builder{
		Endpoint: endpoint,
		Query:    query,
	}
	b.ApplyOptions(opts...)
	return b
}

// Clone copies the builder so variables can change without touching b
func (b *Builder) Clone() *Builder {
	c := *b
	c.Variables = make(map[string]any, len(b.Variables))
	for k, v := range b.Variables {
		c.Variables[k] = v
	}
	c.Headers = make(map[string]string, len(b.Headers))
	for k, v := range b.Headers {
		c.Headers[k] = v
	}
	return &c
}

// Build creates the *http.Request with a JSON body encoded by c.
func (b *Builder) Build(ctx context.Context, c codec.JSON) (*http.Request, error) {
	if b.Query == "" {
		return nil, errors.WrapError(fmt.Errorf("query is empty"), errors.ErrConfiguration, "build GraphQL request")
	}

	req := rest.NewRequest(http.MethodPost, b.Endpoint).WithPayload(payload{
		Query:         b.Query,
		OperationName: b.OperationName,
		Variables:     b.Variables,
	})
	for k, v := range b.Headers {
		req.WithHeader(k, v)
	}
	req.WithHeader("Accept", codec.ContentType)

	encoded, err := rest.EncodeBody(c)(req)
	if err != nil {
		return nil, err
	}
	return encoded.Build(ctx)
}
