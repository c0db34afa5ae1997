package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jk2pr/GoGit-KMP/pkg/errors"
)

func TestLoader_ValidMinimalConfig(t *testing.T) {
	yamlContent := `
base_url: https://api.github.com/
auth:
  type: static
  token: abc
`
	loader := NewLoader(&EnvExpander{}, &ClientDefaults{}, DefaultValidators()...)

	cfg, err := loader.Parse([]byte(yamlContent))
	require.NoError(t, err)

	assert.Equal(t, "https://api.github.com/", cfg.BaseURL)
	assert.Equal(t, DefaultGraphQLEndpoint, cfg.GraphQLEndpoint)
	assert.Equal(t, 60_000, cfg.ConnectTimeout)
	assert.Equal(t, 60_000, cfg.ReadTimeout)
	assert.False(t, cfg.FollowRedirects)
	assert.Equal(t, LogLevelBasic, cfg.Logging.Level)
	assert.Equal(t, "application/json", cfg.DefaultHeaders["Content-Type"])
	assert.Equal(t, "application/json", cfg.DefaultHeaders["Accept"])
	assert.Equal(t, DefaultRedactFields, cfg.Logging.RedactFields)
}

func TestLoader_FullConfig(t *testing.T) {
	yamlContent := `
base_url: https://api.github.com/
graphql_endpoint: https://api.github.com/graphql
default_headers:
  content-type: application/vnd.github+json
  X-GitHub-Api-Version: "2022-11-28"
connect_timeout_ms: 5000
read_timeout_ms: 15000
follow_redirects: true
max_redirects: 3
pretty_print: true
logging:
  level: verbose
  max_body_bytes: 1024
  redact_fields: [secret]
metrics:
  enabled: true
  namespace: gogit
auth:
  type: oauth2
  oauth2:
    token_url: https://auth.example.org/token
    client_id: id
    client_secret: secret
    scopes: [repo, user]
`
	cfg, err := NewLoader(nil, &ClientDefaults{}, DefaultValidators()...).Parse([]byte(yamlContent))
	require.NoError(t, err)

	assert.Equal(t, "application/vnd.github+json", cfg.DefaultHeaders["content-type"])
	_, dup := cfg.DefaultHeaders["Content-Type"]
	assert.False(t, dup, "caller supplied content type must not be duplicated")
	assert.Equal(t, 5000, cfg.ConnectTimeout)
	assert.Equal(t, int64(15000), cfg.ReadTimeoutDuration().Milliseconds())
	assert.True(t, cfg.FollowRedirects)
	assert.Equal(t, 3, cfg.MaxRedirects)
	assert.Equal(t, LogLevelVerbose, cfg.Logging.Level)
	assert.Equal(t, []string{"secret"}, cfg.Logging.RedactFields)
	assert.Equal(t, []string{"repo", "user"}, cfg.Auth.OAuth2.Scopes)
	assert.Equal(t, "gogit", cfg.Metrics.Namespace)
}

func TestLoader_EnvExpansion(t *testing.T) {
	t.Setenv("GOGIT_TEST_TOKEN", "from-env")

	cfg, err := NewLoader(&EnvExpander{}, &ClientDefaults{}, DefaultValidators()...).Parse([]byte(`
auth:
  type: static
  token: ${GOGIT_TEST_TOKEN}
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.Token)
}

func TestLoader_EnvOverlay(t *testing.T) {
	t.Setenv("NETPROBE_BASE_URL", "https://override.example.org/")
	t.Setenv("NETPROBE_LOG_LEVEL", "verbose")
	t.Setenv("NETPROBE_FOLLOW_REDIRECTS", "true")
	t.Setenv("NETPROBE_AUTH_TYPE", "env")
	t.Setenv("NETPROBE_AUTH_TOKEN_ENV", "GITHUB_TOKEN")

	cfg, err := NewDefaultLoader().Parse([]byte(`
base_url: https://api.github.com/
read_timeout_ms: 1000
`))
	require.NoError(t, err)

	assert.Equal(t, "https://override.example.org/", cfg.BaseURL)
	assert.Equal(t, LogLevelVerbose, cfg.Logging.Level)
	assert.True(t, cfg.FollowRedirects)
	assert.Equal(t, 1000, cfg.ReadTimeout, "yaml value kept when no env var is set")
	assert.Equal(t, AuthTypeEnv, cfg.Auth.Type)
	assert.Equal(t, "GITHUB_TOKEN", cfg.Auth.TokenEnv)
}

func TestLoader_EnvOverlayIgnoresUnprefixedNames(t *testing.T) {
	t.Setenv("TOKEN", "unrelated-secret")
	t.Setenv("NAMESPACE", "kube-system")
	t.Setenv("LEVEL", "verbose")
	t.Setenv("BASE_URL", "https://elsewhere.example.org/")
	t.Setenv("ENABLED", "false")

	cfg, err := NewDefaultLoader().Parse([]byte(`
base_url: https://api.github.com/
logging:
  level: basic
metrics:
  enabled: true
  namespace: gogit
auth:
  type: static
  token: from-yaml
`))
	require.NoError(t, err)

	assert.Equal(t, "https://api.github.com/", cfg.BaseURL)
	assert.Equal(t, LogLevelBasic, cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "gogit", cfg.Metrics.Namespace)
	assert.Equal(t, "from-yaml", cfg.Auth.Token)

	t.Setenv("NETPROBE_AUTH_TOKEN", "from-prefixed-env")
	t.Setenv("NETPROBE_METRICS_NAMESPACE", "probe")
	t.Setenv("NETPROBE_GRAPH_QL_ENDPOINT", "https://api.github.com/graphql")
	t.Setenv("NETPROBE_READ_TIMEOUT", "2500")

	cfg, err = NewDefaultLoader().Parse([]byte(`
auth:
  type: static
  token: from-yaml
`))
	require.NoError(t, err)
	assert.Equal(t, "from-prefixed-env", cfg.Auth.Token)
	assert.Equal(t, "probe", cfg.Metrics.Namespace)
	assert.Equal(t, "https://api.github.com/graphql", cfg.GraphQLEndpoint)
	assert.Equal(t, 2500, cfg.ReadTimeout)
}

func TestLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: none\n"), 0o600))

	cfg, err := NewLoader(nil, &ClientDefaults{}).Load(path)
	require.NoError(t, err)
	assert.Equal(t, LogLevelNone, cfg.Logging.Level)

	_, err = NewLoader(nil, nil).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestLoader_InvalidConfigs(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected string
	}{
		{"BadYAML", "base_url: [", "parse YAML"},
		{"RelativeBaseURL", "base_url: /v3", "base_url: must be an absolute http(s) URL"},
		{"UnknownLevel", "logging:\n  level: loud", "unknown log level: loud"},
		{"NegativeTimeout", "connect_timeout_ms: -1", "connect_timeout_ms: must be positive"},
		{"AuthorizationDefault", "default_headers:\n  authorization: Bearer x", "is set by the authorizer"},
		{"StaticWithoutToken", "auth:\n  type: static", "auth.token: is required"},
		{"EnvWithoutName", "auth:\n  type: env", "auth.token_env: is required"},
		{"OAuth2Incomplete", "auth:\n  type: oauth2", "auth.oauth2.client_id: is required"},
		{"UnknownAuth", "auth:\n  type: magic", "unknown auth type: magic"},
	}

	loader := NewLoader(nil, &ClientDefaults{}, DefaultValidators()...)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfiguration))
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, int64(60), int64(cfg.ConnectTimeoutDuration().Seconds()))
}
