package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jk2pr/GoGit-KMP/pkg/codec"
	"github.com/jk2pr/GoGit-KMP/pkg/errors"
)

// Request is an outbound request before it is dispatched.
// Payload is encoded by the codec; Body is sent as is when Payload is nil.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Payload any
	Body    []byte
	Timeout time.Duration // 0 means the client default
}

// NewRequest creates a Request. Method defaults to GET if empty.
func NewRequest(method, url string) *Request {
	if method == "" {
		method = http.MethodGet
	}
	return &Request{Method: method, URL: url, Header: make(http.Header)}
}

// WithPayload sets a structured body and returns r
func (r *Request) WithPayload(v any) *Request {
	r.Payload = v
	return r
}

// WithHeader sets a header and returns r
func (r *Request) WithHeader(key, value string) *Request {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}

// Clone returns a deep copy of everything but Payload
func (r *Request) Clone() *Request {
	c := *r
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	if r.Body != nil {
		c.Body = bytes.Clone(r.Body)
	}
	return &c
}

// Stage transforms a request into a new one. Stages never modify their input.
type Stage func(*Request) (*Request, error)

// Apply runs stages in order
func Apply(req *Request, stages ...Stage) (*Request, error) {
	cur := req
	for _, stage := range stages {
		next, err := stage(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// MergeDefaultHeaders adds every default header the request does not set itself
func MergeDefaultHeaders(defaults http.Header) Stage {
	return func(r *Request) (*Request, error) {
		out := r.Clone()
		for k, vv := range defaults {
			if _, ok := out.Header[http.CanonicalHeaderKey(k)]; ok {
				continue
			}
			for _, v := range vv {
				out.Header.Add(k, v)
			}
		}
		return out, nil
	}
}

// ResolveURL resolves relative request URLs against base.
// Absolute URLs are kept.
func ResolveURL(base *url.URL) Stage {
	return func(r *Request) (*Request, error) {
		ref, err := url.Parse(r.URL)
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrConfiguration, "parse request URL")
		}
		out := r.Clone()
		if ref.IsAbs() {
			return out, nil
		}
		if base == nil {
			return nil, errors.WrapError(fmt.Errorf("relative URL %q without base URL", r.URL), errors.ErrConfiguration, "resolve request URL")
		}
		// "user" and "/user" both land under the base path
		ref.Path = strings.TrimPrefix(ref.Path, "/")
		ref.RawPath = strings.TrimPrefix(ref.RawPath, "/")
		out.URL = withTrailingSlash(base).ResolveReference(ref).String()
		return out, nil
	}
}

func withTrailingSlash(u *url.URL) *url.URL {
	if strings.HasSuffix(u.Path, "/") {
		return u
	}
	c := *u
	c.Path += "/"
	return &c
}

// HeaderAuthorizer attaches credentials to a header set, returning a new one
type HeaderAuthorizer interface {
	AuthorizeHeader(ctx context.Context, h http.Header) (http.Header, error)
}

// Authorize runs a after every other header change so that its
// Authorization header cannot be overridden.
func Authorize(ctx context.Context, a HeaderAuthorizer) Stage {
	return func(r *Request) (*Request, error) {
		h, err := a.AuthorizeHeader(ctx, r.Header)
		if err != nil {
			return nil, err
		}
		out := r.Clone()
		out.Header = h
		return out, nil
	}
}

// EncodeBody serializes Payload with c and sets Content-Type when unset
func EncodeBody(c codec.JSON) Stage {
	return func(r *Request) (*Request, error) {
		out := r.Clone()
		if r.Payload == nil {
			return out, nil
		}
		data, err := c.Encode(r.Payload)
		if err != nil {
			return nil, err
		}
		out.Body = data
		out.Payload = nil
		if out.Header.Get("Content-Type") == "" {
			out.Header.Set("Content-Type", codec.ContentType)
		}
		return out, nil
	}
}

// Build creates the *http.Request for r
func (r *Request) Build(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrConfiguration, "build request")
	}

	req.Header = r.Header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	return req, nil
}
