package config

import "time"

// Client is the full configuration of one request pipeline.
// It is built once at startup and never mutated after the pipeline is created.
//
// Leaf fields take their environment names from split_words only. An
// envconfig name tag on a leaf would also be looked up without the prefix,
// letting unrelated variables such as TOKEN or NAMESPACE override the file.
type Client struct {
	// BaseURL resolves relative request paths
	BaseURL         string            `yaml:"base_url" split_words:"true"`
	GraphQLEndpoint string            `yaml:"graphql_endpoint" split_words:"true"`
	DefaultHeaders  map[string]string `yaml:"default_headers,omitempty" split_words:"true"`

	// Timeouts are in milliseconds
	ConnectTimeout int `yaml:"connect_timeout_ms" split_words:"true"`
	ReadTimeout    int `yaml:"read_timeout_ms" split_words:"true"`

	// Redirects are returned to the caller unless FollowRedirects is set
	FollowRedirects bool `yaml:"follow_redirects" split_words:"true"`
	MaxRedirects    int  `yaml:"max_redirects,omitempty" split_words:"true"`

	PrettyPrint bool   `yaml:"pretty_print,omitempty" split_words:"true"`
	UserAgent   string `yaml:"user_agent,omitempty" split_words:"true"`

	Logging Logging `yaml:"logging" envconfig:"LOG"`
	Metrics Metrics `yaml:"metrics,omitempty" envconfig:"METRICS"`
	Auth    Auth    `yaml:"auth" envconfig:"AUTH"`
}

// ConnectTimeoutDuration returns ConnectTimeout as a time.Duration
func (c *Client) ConnectTimeoutDuration() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Millisecond
}

// ReadTimeoutDuration returns ReadTimeout as a time.Duration
func (c *Client) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Millisecond
}

// LogLevel is the verbosity of request/response logging.
type LogLevel string

const (
	LogLevelNone    LogLevel = "none"    // Nothing is logged
	LogLevelBasic   LogLevel = "basic"   // Status codes only
	LogLevelVerbose LogLevel = "verbose" // Method, URL and bodies
)

// Logging configures the observability hooks
type Logging struct {
	Level            LogLevel `yaml:"level" split_words:"true"`
	MaxBodyBytes     int      `yaml:"max_body_bytes,omitempty" split_words:"true"`    // Bodies are truncated past this size in logs
	DisableRedaction bool     `yaml:"disable_redaction,omitempty" split_words:"true"` // Log bodies verbatim
	RedactFields     []string `yaml:"redact_fields,omitempty" split_words:"true"`     // JSON keys whose values are masked
}

// Metrics configures the prometheus hooks
type Metrics struct {
	Enabled   bool   `yaml:"enabled" split_words:"true"`
	Namespace string `yaml:"namespace,omitempty" split_words:"true"`
}

// AuthType defines current supported token provider types
type AuthType string

const (
	AuthTypeStatic AuthType = "static" // Token given inline
	AuthTypeEnv    AuthType = "env"    // Token read from an environment variable on every request
	AuthTypeOAuth2 AuthType = "oauth2" // Client credentials grant
)

// Auth selects and configures the token provider
type Auth struct {
	Type     AuthType   `yaml:"type" split_words:"true"`
	Token    string     `yaml:"token,omitempty" split_words:"true"`     // static
	TokenEnv string     `yaml:"token_env,omitempty" split_words:"true"` // env
	OAuth2   OAuth2Auth `yaml:"oauth2,omitempty" envconfig:"OAUTH2"`    // oauth2
}

// OAuth2Auth contains OAuth2 client credentials details
type OAuth2Auth struct {
	TokenURL     string            `yaml:"token_url" split_words:"true"`
	ClientID     string            `yaml:"client_id" split_words:"true"`
	ClientSecret string            `yaml:"client_secret" split_words:"true"`
	Scopes       []string          `yaml:"scopes,omitempty" split_words:"true"`
	ExtraParams  map[string]string `yaml:"extra_params,omitempty" split_words:"true"`
}

// Defaults used by ClientDefaults
const (
	DefaultBaseURL         = "https://api.example.org/"
	DefaultGraphQLEndpoint = "https://api.example.org/graphql"
	DefaultTimeoutMillis   = 60_000
	DefaultMaxRedirects    = 10
	DefaultMaxBodyBytes    = 64 << 10
	DefaultContentType     = "application/json"
)

// DefaultRedactFields are masked in verbose body logs unless configured otherwise.
var DefaultRedactFields = []string{
	"access_token",
	"refresh_token",
	"token",
	"password",
	"client_secret",
	"authorization",
}

// Default returns a Client with every default applied and static auth unset.
func Default() Client {
	var c Client
	(&ClientDefaults{}).SetDefaults(&c)
	return c
}
