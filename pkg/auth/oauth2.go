package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/jk2pr/GoGit-KMP/pkg/config"
	"github.com/jk2pr/GoGit-KMP/pkg/errors"
)

// OAuth2TokenProvider adapts OAuth2 token fetching to a TokenProvider.
// A valid token is cached and shared; only one fetch runs at a time, and a
// caller whose ctx ends while fetching or waiting gets ErrAuthUnavailable.
type OAuth2TokenProvider struct {
	fetch func(ctx context.Context) (*oauth2.Token, error)
	name  string

	// sem serializes fetches and guards token
	sem   chan struct{}
	token *oauth2.Token
}

func newOAuth2TokenProvider(name string, fetch func(ctx context.Context) (*oauth2.Token, error)) *OAuth2TokenProvider {
	return &OAuth2TokenProvider{fetch: fetch, name: name, sem: make(chan struct{}, 1)}
}

// NewOAuth2TokenProvider wraps an arbitrary token source. TokenSource has no
// context, so ctx is only checked before calling it.
func NewOAuth2TokenProvider(src oauth2.TokenSource) *OAuth2TokenProvider {
	return newOAuth2TokenProvider("custom", func(ctx context.Context) (*oauth2.Token, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return src.Token()
	})
}

// NewClientCredentialsProvider creates a provider running the OAuth2 client
// credentials grant against cfg.TokenURL. The token endpoint is called with
// httpClient when non-nil; it must not be the authorized pipeline client.
func NewClientCredentialsProvider(cfg config.OAuth2Auth, httpClient *http.Client) (*OAuth2TokenProvider, error) {
	if cfg.TokenURL == "" || cfg.ClientID == "" {
		return nil, errors.WrapError(
			fmt.Errorf("token_url and client_id are required"),
			errors.ErrConfiguration,
			"create oauth2 provider",
		)
	}

	params := url.Values{}
	for k, v := range cfg.ExtraParams {
		params.Set(k, v)
	}

	cc := &clientcredentials.Config{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		TokenURL:       cfg.TokenURL,
		Scopes:         cfg.Scopes,
		EndpointParams: params,
	}

	// The token endpoint call runs under the caller's ctx
	return newOAuth2TokenProvider(cfg.ClientID, func(ctx context.Context) (*oauth2.Token, error) {
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		return cc.Token(ctx)
	}), nil
}

func (p *OAuth2TokenProvider) Token(ctx context.Context) (Token, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return Token{}, errors.WrapError(ctx.Err(), errors.ErrAuthUnavailable, "oauth2 token")
	}
	defer func() { <-p.sem }()

	if !p.token.Valid() {
		tok, err := p.fetch(ctx)
		if err != nil {
			return Token{}, errors.WrapError(err, errors.ErrAuthUnavailable, "oauth2 token")
		}
		if tok == nil || tok.AccessToken == "" {
			return Token{}, errors.WrapError(fmt.Errorf("token is empty"), errors.ErrAuthUnavailable, "oauth2 token")
		}
		p.token = tok
	}
	// The refresh token slot stays empty, refreshing is done here
	return Token{AccessToken: p.token.AccessToken}, nil
}

// String returns a string representation of this provider
func (p *OAuth2TokenProvider) String() string {
	return fmt.Sprintf("OAuth2TokenProvider(client: %s)", p.name)
}
