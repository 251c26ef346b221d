package pdp

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/patrickfnielsen/pdpclient/internal/util"
)

const (
	DefaultSchema           = "http"
	DefaultHostname         = "localhost"
	DefaultPort             = 8181
	DefaultPolicyPath       = "/authz"
	DefaultConnectTimeout   = 5000 * time.Millisecond
	DefaultReadTimeout      = 5000 * time.Millisecond
	DefaultRetryMaxAttempts = 2
	DefaultRetryBackoff     = 250 * time.Millisecond
)

// Environment variables read by ResolveConfig. Timeouts and backoff are
// whole milliseconds.
const (
	EnvSchema           = "PDP_SCHEMA"
	EnvHostname         = "PDP_HOSTNAME"
	EnvPort             = "PDP_PORT"
	EnvPolicyPath       = "PDP_POLICY_PATH"
	EnvConnectTimeout   = "PDP_CONNECTION_TIMEOUT_MILLISECONDS"
	EnvReadTimeout      = "PDP_READ_TIMEOUT_MILLISECONDS"
	EnvRetryMaxAttempts = "PDP_RETRY_MAX_ATTEMPTS"
	EnvRetryBackoff     = "PDP_RETRY_BACKOFF_MILLISECONDS"
)

// Config is the resolved client configuration. A Client keeps its own copy
// and never changes it; build a new Client to use different values.
type Config struct {
	Schema           string        `validate:"oneof=http https"`
	Hostname         string        `validate:"required"` // may embed the schema, e.g. https://pdp.local
	Port             int           `validate:"gte=0,lte=65535"`
	PolicyPath       string        // leading slash is optional
	ConnectTimeout   time.Duration `validate:"gte=0"`
	ReadTimeout      time.Duration `validate:"gte=0"`
	RetryMaxAttempts int           `validate:"gte=1"`
	RetryBackoff     time.Duration `validate:"gte=0"`
}

// DefaultConfig returns the compiled-in defaults.
func DefaultConfig() Config {
	return Config{
		Schema:           DefaultSchema,
		Hostname:         DefaultHostname,
		Port:             DefaultPort,
		PolicyPath:       DefaultPolicyPath,
		ConnectTimeout:   DefaultConnectTimeout,
		ReadTimeout:      DefaultReadTimeout,
		RetryMaxAttempts: DefaultRetryMaxAttempts,
		RetryBackoff:     DefaultRetryBackoff,
	}
}

// ResolveConfig layers, in increasing precedence, the defaults, the PDP_*
// environment variables and the explicitly applied options. An option that
// was never applied leaves the environment value in place.
func ResolveConfig(opts ...Option) (Config, error) {
	o := newOptions(opts)
	return o.resolve()
}

func (o *options) resolve() (Config, error) {
	if o.envErr != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, o.envErr)
	}

	cfg := DefaultConfig()
	cfg.applyEnv(o.lookup)
	o.overrides.apply(&cfg)
	cfg.Schema = strings.ToLower(cfg.Schema)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the ranges of every field.
func (c Config) Validate() error {
	if err := util.ValidationError(util.ValidateStruct(c)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup util.LookupFunc) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	c.Schema = util.ParseEnv(lookup, EnvSchema, c.Schema)
	c.Hostname = util.ParseEnv(lookup, EnvHostname, c.Hostname)
	c.Port = util.ParseEnv(lookup, EnvPort, c.Port)
	c.PolicyPath = util.ParseEnv(lookup, EnvPolicyPath, c.PolicyPath)
	c.ConnectTimeout = util.ParseEnv(lookup, EnvConnectTimeout, c.ConnectTimeout)
	c.ReadTimeout = util.ParseEnv(lookup, EnvReadTimeout, c.ReadTimeout)
	c.RetryMaxAttempts = util.ParseEnv(lookup, EnvRetryMaxAttempts, c.RetryMaxAttempts)
	c.RetryBackoff = util.ParseEnv(lookup, EnvRetryBackoff, c.RetryBackoff)
}

// overrides holds the values set through options; nil means "not set".
type overrides struct {
	schema           *string
	hostname         *string
	port             *int
	policyPath       *string
	connectTimeout   *time.Duration
	readTimeout      *time.Duration
	retryMaxAttempts *int
	retryBackoff     *time.Duration
}

func (ov *overrides) apply(c *Config) {
	if ov.schema != nil {
		c.Schema = *ov.schema
	}
	if ov.hostname != nil {
		c.Hostname = *ov.hostname
	}
	if ov.port != nil {
		c.Port = *ov.port
	}
	if ov.policyPath != nil {
		c.PolicyPath = *ov.policyPath
	}
	if ov.connectTimeout != nil {
		c.ConnectTimeout = *ov.connectTimeout
	}
	if ov.readTimeout != nil {
		c.ReadTimeout = *ov.readTimeout
	}
	if ov.retryMaxAttempts != nil {
		c.RetryMaxAttempts = *ov.retryMaxAttempts
	}
	if ov.retryBackoff != nil {
		c.RetryBackoff = *ov.retryBackoff
	}
}
