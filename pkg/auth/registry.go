package auth

import (
	"fmt"
	"sync"

	"github.com/jk2pr/GoGit-KMP/pkg/config"
	"github.com/jk2pr/GoGit-KMP/pkg/errors"
)

// ProviderCreator defines a function that creates a token provider from config
type ProviderCreator func(*config.Auth) (TokenProvider, error)

// ProviderRegistry maintains a registry of token provider creators
type ProviderRegistry struct {
	creators map[config.AuthType]ProviderCreator
	mutex    sync.RWMutex
}

// NewProviderRegistry creates a new registry with the built-in providers
func NewProviderRegistry() *ProviderRegistry {
	registry := &ProviderRegistry{
		creators: make(map[config.AuthType]ProviderCreator),
	}

	// Register default providers
	registry.Register(config.AuthTypeStatic, createStaticProvider)
	registry.Register(config.AuthTypeEnv, createEnvProvider)
	registry.Register(config.AuthTypeOAuth2, createOAuth2Provider)
	return registry
}

// Register adds a new provider creator to the registry
func (r *ProviderRegistry) Register(authType config.AuthType, creator ProviderCreator) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.creators[authType] = creator
}

// Create creates a token provider based on the config
func (r *ProviderRegistry) Create(authConfig *config.Auth) (TokenProvider, error) {
	if authConfig == nil || authConfig.Type == "" {
		return nil, errors.WrapError(
			fmt.Errorf("auth type is required"),
			errors.ErrConfiguration,
			"invalid auth type",
		)
	}

	r.mutex.RLock()
	creator, exists := r.creators[authConfig.Type]
	r.mutex.RUnlock()

	if !exists {
		return nil, errors.WrapError(
			fmt.Errorf("unsupported auth type: %s", authConfig.Type),
			errors.ErrConfiguration,
			"invalid auth type",
		)
	}

	return creator(authConfig)
}

var defaultRegistry = NewProviderRegistry()

// CreateTokenProvider builds a provider with the default registry
func CreateTokenProvider(authConfig *config.Auth) (TokenProvider, error) {
	return defaultRegistry.Create(authConfig)
}

// RegisterTokenProvider adds a creator to the default registry
func RegisterTokenProvider(authType config.AuthType, creator ProviderCreator) {
	defaultRegistry.Register(authType, creator)
}
