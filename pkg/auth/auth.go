package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/jk2pr/GoGit-KMP/pkg/errors"
)

// Authorizer produces an authorized copy of an outbound request.
// The input request is never modified.
type Authorizer interface {
	Authorize(req *http.Request) (*http.Request, error)
}

// Token is the credential handed out by a TokenProvider.
type Token struct {
	AccessToken  string
	RefreshToken string // Always empty, the slot is kept for providers that refresh
}

// TokenProvider supplies the current bearer token on demand.
// Implementations must be safe for concurrent use; freshness and refresh
// are their own business.
type TokenProvider interface {
	Token(ctx context.Context) (Token, error)
}

// TokenProviderFunc adapts a function to a TokenProvider
type TokenProviderFunc func(ctx context.Context) (Token, error)

func (f TokenProviderFunc) Token(ctx context.Context) (Token, error) { return f(ctx) }

// StaticTokenProvider always returns the same access token
type StaticTokenProvider struct {
	AccessToken string
}

// NewStaticTokenProvider creates a provider for a fixed token such as a personal access token
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{AccessToken: token}
}

func (p *StaticTokenProvider) Token(_ context.Context) (Token, error) {
	if p.AccessToken == "" {
		return Token{}, errors.WrapError(fmt.Errorf("token is empty"), errors.ErrAuthUnavailable, "static token")
	}
	return Token{AccessToken: p.AccessToken}, nil
}

// EnvTokenProvider reads the token from an environment variable on every call,
// so a rotated value takes effect on the next request.
type EnvTokenProvider struct {
	Variable string
}

// NewEnvTokenProvider creates a provider backed by the named variable
func NewEnvTokenProvider(variable string) *EnvTokenProvider {
	return &EnvTokenProvider{Variable: variable}
}

func (p *EnvTokenProvider) Token(_ context.Context) (Token, error) {
	value := os.Getenv(p.Variable)
	if value == "" {
		return Token{}, errors.WrapError(fmt.Errorf("%s is not set", p.Variable), errors.ErrAuthUnavailable, "env token")
	}
	return Token{AccessToken: value}, nil
}

// String returns a string representation of this provider
func (p *EnvTokenProvider) String() string {
	return fmt.Sprintf("EnvTokenProvider(variable: %s)", p.Variable)
}
