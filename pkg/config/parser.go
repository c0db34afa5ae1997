package config

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/jk2pr/GoGit-KMP/pkg/errors"
)

// EnvPrefix is the envconfig prefix used for environment overrides,
// e.g. NETPROBE_BASE_URL or NETPROBE_LOG_LEVEL.
const EnvPrefix = "NETPROBE"

type ValidationError struct {
	Field   string
	Message string
}

type Validator interface {
	Validate(config *Client) []ValidationError
}

// Returns the string representation of validation error
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DefaultValueSetter Handles the interface for setting default values
type DefaultValueSetter interface {
	SetDefaults(config *Client)
}

// VariableExpander defines the interface for expanding variables
type VariableExpander interface {
	Expand(data []byte) []byte
}

// EnvExpander implements VariableExpander using environment variables
type EnvExpander struct{}

// Expand expands ${VAR} references with the environment
func (e *EnvExpander) Expand(data []byte) []byte {
	expanded := os.Expand(string(data), os.Getenv)
	return []byte(expanded)
}

// Loader reads a Client configuration from YAML and the environment
type Loader struct {
	expander      VariableExpander
	validators    []Validator
	defaultSetter DefaultValueSetter
	envPrefix     string
}

// NewLoader creates a new Loader with the given components
func NewLoader(
	expander VariableExpander,
	defaultSetter DefaultValueSetter,
	validators ...Validator,
) *Loader {
	return &Loader{
		expander:      expander,
		validators:    validators,
		defaultSetter: defaultSetter,
	}
}

// NewDefaultLoader wires the env expander, defaults, the standard validators
// and the NETPROBE_ environment overlay.
func NewDefaultLoader() *Loader {
	return NewLoader(&EnvExpander{}, &ClientDefaults{}, DefaultValidators()...).WithEnvOverlay(EnvPrefix)
}

// WithEnvOverlay makes Parse apply environment variables with the given
// prefix on top of the YAML values.
func (l *Loader) WithEnvOverlay(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load a client config from a YAML file
func (l *Loader) Load(path string) (*Client, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrConfiguration, "read config file")
	}

	return l.Parse(data)
}

// Parse parses a yaml config. Empty input yields a config made of
// environment values and defaults only.
func (l *Loader) Parse(data []byte) (*Client, error) {
	// Expand variables if an expander is configured
	if l.expander != nil {
		data = l.expander.Expand(data)
	}

	var cfg Client
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.ErrConfiguration, "parse YAML")
	}

	if l.envPrefix != "" {
		if err := ApplyEnv(l.envPrefix, &cfg); err != nil {
			return nil, err
		}
	}

	// Set default values if a default setter is configured
	if l.defaultSetter != nil {
		l.defaultSetter.SetDefaults(&cfg)
	}

	if err := runValidators(&cfg, l.validators); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyEnv overrides fields of cfg with environment variables under prefix.
// Unset variables leave the field untouched.
func ApplyEnv(prefix string, cfg *Client) error {
	if err := envconfig.Process(prefix, cfg); err != nil {
		return errors.WrapError(err, errors.ErrConfiguration, "read environment")
	}
	return nil
}

// Validate runs the standard validators against c.
func (c *Client) Validate() error {
	return runValidators(c, DefaultValidators())
}

func runValidators(cfg *Client, validators []Validator) error {
	var allErrors []ValidationError
	for _, validator := range validators {
		allErrors = append(allErrors, validator.Validate(cfg)...)
	}

	if len(allErrors) > 0 {
		return errors.WrapError(fmt.Errorf("%v", allErrors), errors.ErrConfiguration, "validation errors")
	}
	return nil
}

// DefaultValidators returns every built-in validator
func DefaultValidators() []Validator {
	return []Validator{
		&RequiredFieldValidator{},
		&TimeoutValidator{},
		&LoggingValidator{},
		&HeaderValidator{},
		&AuthValidator{},
	}
}

// ClientDefaults implements DefaultValueSetter for Client
type ClientDefaults struct{}

// SetDefaults fills every zero field with its default
func (d *ClientDefaults) SetDefaults(config *Client) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.GraphQLEndpoint == "" {
		config.GraphQLEndpoint = DefaultGraphQLEndpoint
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = DefaultTimeoutMillis
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = DefaultTimeoutMillis
	}
	if config.MaxRedirects == 0 {
		config.MaxRedirects = DefaultMaxRedirects
	}

	if config.DefaultHeaders == nil {
		config.DefaultHeaders = make(map[string]string)
	}
	setHeaderIfMissing(config.DefaultHeaders, "Content-Type", DefaultContentType)
	setHeaderIfMissing(config.DefaultHeaders, "Accept", DefaultContentType)

	if config.Logging.Level == "" {
		config.Logging.Level = LogLevelBasic
	}
	if config.Logging.MaxBodyBytes == 0 {
		config.Logging.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if config.Logging.RedactFields == nil {
		config.Logging.RedactFields = append([]string(nil), DefaultRedactFields...)
	}

	if config.Metrics.Namespace == "" {
		config.Metrics.Namespace = "netprobe"
	}
}

func setHeaderIfMissing(headers map[string]string, key, value string) {
	for k := range headers {
		if http.CanonicalHeaderKey(k) == key {
			return
		}
	}
	headers[key] = value
}

// RequiredFieldValidator validates URLs
type RequiredFieldValidator struct{}

// Validate checks that base URL and GraphQL endpoint are absolute http(s) URLs
func (v *RequiredFieldValidator) Validate(config *Client) []ValidationError {
	var errors []ValidationError

	check := func(field, raw string) {
		if raw == "" {
			errors = append(errors, ValidationError{Field: field, Message: "is required"})
			return
		}
		u, err := url.Parse(raw)
		if err != nil {
			errors = append(errors, ValidationError{Field: field, Message: err.Error()})
			return
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, ValidationError{Field: field, Message: "must be an absolute http(s) URL"})
		}
	}

	check("base_url", config.BaseURL)
	check("graphql_endpoint", config.GraphQLEndpoint)

	return errors
}

// TimeoutValidator validates timeouts and redirect limits
type TimeoutValidator struct{}

// Validate checks that timeouts are positive
func (v *TimeoutValidator) Validate(config *Client) []ValidationError {
	var errors []ValidationError

	if config.ConnectTimeout <= 0 {
		errors = append(errors, ValidationError{Field: "connect_timeout_ms", Message: "must be positive"})
	}
	if config.ReadTimeout <= 0 {
		errors = append(errors, ValidationError{Field: "read_timeout_ms", Message: "must be positive"})
	}
	if config.FollowRedirects && config.MaxRedirects <= 0 {
		errors = append(errors, ValidationError{Field: "max_redirects", Message: "must be positive when follow_redirects is set"})
	}

	return errors
}

// LoggingValidator validates the logging section
type LoggingValidator struct{}

// Validate checks the log level is known
func (v *LoggingValidator) Validate(config *Client) []ValidationError {
	var errors []ValidationError

	switch config.Logging.Level {
	case LogLevelNone, LogLevelBasic, LogLevelVerbose:
	default:
		errors = append(errors, ValidationError{Field: "logging.level", Message: fmt.Sprintf("unknown log level: %s", config.Logging.Level)})
	}
	if config.Logging.MaxBodyBytes < 0 {
		errors = append(errors, ValidationError{Field: "logging.max_body_bytes", Message: "must not be negative"})
	}

	return errors
}

// HeaderValidator rejects default headers the pipeline owns
type HeaderValidator struct{}

// Validate checks that no default header sets Authorization
func (v *HeaderValidator) Validate(config *Client) []ValidationError {
	var errors []ValidationError

	for k := range config.DefaultHeaders {
		if http.CanonicalHeaderKey(strings.TrimSpace(k)) == "Authorization" {
			errors = append(errors, ValidationError{Field: "default_headers.Authorization", Message: "is set by the authorizer"})
		}
	}

	return errors
}

// AuthValidator handles token provider validation
type AuthValidator struct{}

// Validate checks that the auth section is complete for its type
func (v *AuthValidator) Validate(config *Client) []ValidationError {
	var errors []ValidationError

	a := config.Auth
	switch a.Type {
	case "":
		// Providers can be injected in code instead
	case AuthTypeStatic:
		if a.Token == "" {
			errors = append(errors, ValidationError{Field: "auth.token", Message: "is required for static auth"})
		}
	case AuthTypeEnv:
		if a.TokenEnv == "" {
			errors = append(errors, ValidationError{Field: "auth.token_env", Message: "is required for env auth"})
		}
	case AuthTypeOAuth2:
		if a.OAuth2.TokenURL == "" {
			errors = append(errors, ValidationError{Field: "auth.oauth2.token_url", Message: "is required for oauth2 auth"})
		}
		if a.OAuth2.ClientID == "" {
			errors = append(errors, ValidationError{Field: "auth.oauth2.client_id", Message: "is required for oauth2 auth"})
		}
		if a.OAuth2.ClientSecret == "" {
			errors = append(errors, ValidationError{Field: "auth.oauth2.client_secret", Message: "is required for oauth2 auth"})
		}
	default:
		errors = append(errors, ValidationError{Field: "auth.type", Message: fmt.Sprintf("unknown auth type: %s", a.Type)})
	}

	return errors
}
