package rest

import (
	"io"
	"net/http"
	"net/url"

	"github.com/jk2pr/GoGit-KMP/pkg/codec"
	"github.com/jk2pr/GoGit-KMP/pkg/errors"
)

// HTTPDoer is a minimal interface for HTTP clients
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Response is a fully read response. It is not modified after Do returns.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// URL is where the response came from, after any followed redirects
	URL *url.URL
}

// IsSuccess reports a 2xx status
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect reports a 3xx status
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// Decode parses the body into v with the lenient codec.
// On failure the returned *errors.DecodeError carries status and raw body.
func (r *Response) Decode(v any) error {
	return r.DecodeWith(codec.Default, v)
}

// DecodeWith is Decode with an explicit codec
func (r *Response) DecodeWith(c codec.JSON, v any) error {
	if err := c.Decode(r.Body, v); err != nil {
		de := &errors.DecodeError{StatusCode: r.StatusCode, Body: r.Body, Err: err}
		var inner *errors.DecodeError
		if errors.As(err, &inner) {
			de.Err = inner.Err
		}
		return de
	}
	return nil
}

// Do sends req with doer and reads the whole body.
// Transport failures come back as *errors.TransportError; errors matching
// errors.ErrAuthUnavailable are returned as they are.
func Do(doer HTTPDoer, req *http.Request) (*Response, error) {
	resp, err := doer.Do(req)
	if err != nil {
		if errors.Is(err, errors.ErrAuthUnavailable) {
			return nil, err
		}
		return nil, &errors.TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}

	final := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		URL:        final,
	}, nil
}
