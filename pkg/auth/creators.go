package auth

import (
	"fmt"

	"github.com/jk2pr/GoGit-KMP/pkg/config"
	"github.com/jk2pr/GoGit-KMP/pkg/errors"
)

// Creator functions for token providers

func createStaticProvider(authConfig *config.Auth) (TokenProvider, error) {
	if authConfig.Token == "" {
		return nil, errors.WrapError(
			fmt.Errorf("token is required"),
			errors.ErrConfiguration,
			"create static provider",
		)
	}
	return NewStaticTokenProvider(authConfig.Token), nil
}

func createEnvProvider(authConfig *config.Auth) (TokenProvider, error) {
	if authConfig.TokenEnv == "" {
		return nil, errors.WrapError(
			fmt.Errorf("token_env is required"),
			errors.ErrConfiguration,
			"create env provider",
		)
	}
	return NewEnvTokenProvider(authConfig.TokenEnv), nil
}

func createOAuth2Provider(authConfig *config.Auth) (TokenProvider, error) {
	return NewClientCredentialsProvider(authConfig.OAuth2, nil)
}
