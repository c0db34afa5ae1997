package auth

import (
	"net/http"
	"strings"
)

// Transport is an http.RoundTripper that authorizes every request before
// handing it to Base. When authorization fails Base is never called.
//
// Redirect hops that leave the host of the original request are sent
// without authorization, matching what http.Client does with an
// Authorization header set on the request itself.
type Transport struct {
	Base http.RoundTripper
	Auth Authorizer
}

// NewTransport wraps base, defaulting to http.DefaultTransport
func NewTransport(base http.RoundTripper, authorizer Authorizer) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Auth: authorizer}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !sameHostAsOrigin(req) {
		return t.Base.RoundTrip(req)
	}

	authorized, err := t.Auth.Authorize(req)
	if err != nil {
		// RoundTrip must close the body even on error
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}
	return t.Base.RoundTrip(authorized)
}

// sameHostAsOrigin walks back through the redirect chain to the first
// request and compares hosts
func sameHostAsOrigin(req *http.Request) bool {
	origin := req
	for origin.Response != nil && origin.Response.Request != nil {
		origin = origin.Response.Request
	}
	if origin == req {
		return true
	}
	return strings.EqualFold(origin.URL.Host, req.URL.Host)
}
