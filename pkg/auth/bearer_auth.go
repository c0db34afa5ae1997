package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jk2pr/GoGit-KMP/pkg/errors"
)

// BearerAuth attaches "Authorization: Bearer <token>" using a TokenProvider.
// The token is fetched on every call and never cached here.
type BearerAuth struct {
	Provider TokenProvider
}

// NewBearerAuth creates a new bearer token authorizer
func NewBearerAuth(provider TokenProvider) *BearerAuth {
	return &BearerAuth{
		Provider: provider,
	}
}

// ApplyAuth sets the Authorization header on req, overwriting any existing value
func (b *BearerAuth) ApplyAuth(req *http.Request) error {
	value, err := b.headerValue(req.Context())
	if err != nil {
		return err
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	// Set replaces every existing value so exactly one header remains
	req.Header.Set("Authorization", value)

	return nil
}

// AuthorizeHeader returns a copy of h carrying the bearer token
func (b *BearerAuth) AuthorizeHeader(ctx context.Context, h http.Header) (http.Header, error) {
	value, err := b.headerValue(ctx)
	if err != nil {
		return nil, err
	}
	out := h.Clone()
	if out == nil {
		out = make(http.Header)
	}
	out.Set("Authorization", value)
	return out, nil
}

// headerValue fetches a token now and formats the header value
func (b *BearerAuth) headerValue(ctx context.Context) (string, error) {
	if b.Provider == nil {
		return "", errors.WrapError(
			fmt.Errorf("no token provider configured"),
			errors.ErrAuthUnavailable,
			"apply bearer auth",
		)
	}

	token, err := b.Provider.Token(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrAuthUnavailable) {
			return "", err
		}
		return "", errors.WrapError(err, errors.ErrAuthUnavailable, "fetch token")
	}
	if token.AccessToken == "" {
		return "", errors.WrapError(
			fmt.Errorf("token is empty"),
			errors.ErrAuthUnavailable,
			"apply bearer auth",
		)
	}

	return "Bearer " + token.AccessToken, nil
}

// Authorize returns a copy of req carrying the bearer token
func (b *BearerAuth) Authorize(req *http.Request) (*http.Request, error) {
	cloned := req.Clone(req.Context())
	if cloned.Header == nil {
		cloned.Header = make(http.Header)
	}
	if err := b.ApplyAuth(cloned); err != nil {
		return nil, err
	}
	return cloned, nil
}

// String returns a string representation of this auth method for testing
func (b *BearerAuth) String() string {
	// There is no need to actually put the actual token
	return "BearerAuth(token: [REDACTED])"
}
