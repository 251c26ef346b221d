package pdp

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"

	"github.com/patrickfnielsen/pdpclient/internal/util"
)

// Option configures ResolveConfig and New.
type Option func(*options)

type options struct {
	overrides

	lookup         util.LookupFunc
	envErr         error
	httpClient     HTTPDoer
	logger         *slog.Logger
	metrics        *Metrics
	tracerProvider trace.TracerProvider
}

func newOptions(opts []Option) *options {
	o := &options{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithSchema sets the URI scheme used when the hostname has none.
func WithSchema(schema string) Option {
	return func(o *options) {
		o.schema = &schema
	}
}

// WithHostname sets the PDP host, optionally prefixed with a scheme.
func WithHostname(hostname string) Option {
	return func(o *options) {
		o.hostname = &hostname
	}
}

func WithPort(port int) Option {
	return func(o *options) {
		o.port = &port
	}
}

func WithPolicyPath(policyPath string) Option {
	return func(o *options) {
		o.policyPath = &policyPath
	}
}

func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		o.connectTimeout = &d
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = &d
	}
}

func WithRetryMaxAttempts(attempts int) Option {
	return func(o *options) {
		o.retryMaxAttempts = &attempts
	}
}

func WithRetryBackoff(d time.Duration) Option {
	return func(o *options) {
		o.retryBackoff = &d
	}
}

// WithEnvLookup replaces os.LookupEnv as the source of PDP_* variables.
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(o *options) {
		o.lookup = lookup
	}
}

// WithEnvFile reads PDP_* variables from dotenv files as well. Like
// godotenv.Load, values already present in the process environment win.
func WithEnvFile(filenames ...string) Option {
	return func(o *options) {
		values, err := godotenv.Read(filenames...)
		if err != nil {
			o.envErr = err
			return
		}

		next := o.lookup
		o.lookup = func(key string) (string, bool) {
			if next != nil {
				if v, ok := next(key); ok {
					return v, true
				}
			}
			v, ok := values[key]
			return v, ok
		}
	}
}

// WithHTTPClient replaces the HTTP client built from the timeouts.
func WithHTTPClient(client HTTPDoer) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithTracerProvider sets where evaluation spans go. The global provider is
// used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}
