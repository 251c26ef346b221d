package pdp

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

var noEnv = envMap(nil)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	assert.Equal(t, "http", cfg.Schema)
	assert.Equal(t, "localhost", cfg.Hostname)
	assert.Equal(t, 8181, cfg.Port)
	assert.Equal(t, "/authz", cfg.PolicyPath)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 2, cfg.RetryMaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBackoff)
	assert.NoError(t, cfg.Validate())
}

func TestResolveConfig_NoEnvironment(t *testing.T) {
	t.Parallel()

	cfg, err := ResolveConfig(WithEnvLookup(noEnv))

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolveConfig_Environment(t *testing.T) {
	t.Parallel()

	cfg, err := ResolveConfig(WithEnvLookup(envMap(map[string]string{
		EnvSchema:           "https",
		EnvHostname:         "pdp.internal",
		EnvPort:             "9191",
		EnvPolicyPath:       "v1/data/gateway",
		EnvConnectTimeout:   "100",
		EnvReadTimeout:      "200",
		EnvRetryMaxAttempts: "4",
		EnvRetryBackoff:     "10",
	})))

	require.NoError(t, err)
	assert.Equal(t, Config{
		Schema:           "https",
		Hostname:         "pdp.internal",
		Port:             9191,
		PolicyPath:       "v1/data/gateway",
		ConnectTimeout:   100 * time.Millisecond,
		ReadTimeout:      200 * time.Millisecond,
		RetryMaxAttempts: 4,
		RetryBackoff:     10 * time.Millisecond,
	}, cfg)
}

func TestResolveConfig_UnparseableEnvironmentIsIgnored(t *testing.T) {
	t.Parallel()

	cfg, err := ResolveConfig(WithEnvLookup(envMap(map[string]string{
		EnvPort:             "eighty",
		EnvConnectTimeout:   "5s",
		EnvRetryMaxAttempts: "",
		EnvRetryBackoff:     "1.5",
		EnvReadTimeout:      "9300000000000",
		EnvHostname:         "",
	})))

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolveConfig_SchemaIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	cfg, err := ResolveConfig(WithEnvLookup(envMap(map[string]string{EnvSchema: "HTTPS"})))
	require.NoError(t, err)
	assert.Equal(t, "https", cfg.Schema)

	cfg, err = ResolveConfig(WithEnvLookup(noEnv), WithSchema("Http"))
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Schema)

	endpoint, err := BuildEndpoint(cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8181/authz", endpoint)
}

func TestResolveConfig_Precedence(t *testing.T) {
	t.Parallel()

	env := envMap(map[string]string{
		EnvHostname: "env-host",
		EnvPort:     "9000",
	})

	tests := []struct {
		name         string
		opts         []Option
		wantHostname string
		wantPort     int
	}{
		{
			name:         "environment beats default",
			opts:         nil,
			wantHostname: "env-host",
			wantPort:     9000,
		},
		{
			name:         "explicit option beats environment",
			opts:         []Option{WithHostname("explicit-host")},
			wantHostname: "explicit-host",
			wantPort:     9000,
		},
		{
			name:         "explicit default value still wins",
			opts:         []Option{WithPort(DefaultPort)},
			wantHostname: "env-host",
			wantPort:     DefaultPort,
		},
		{
			name:         "unrelated options leave environment alone",
			opts:         []Option{WithRetryMaxAttempts(3), WithSchema("https")},
			wantHostname: "env-host",
			wantPort:     9000,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := ResolveConfig(append([]Option{WithEnvLookup(env)}, tt.opts...)...)

			require.NoError(t, err)
			assert.Equal(t, tt.wantHostname, cfg.Hostname)
			assert.Equal(t, tt.wantPort, cfg.Port)
		})
	}
}

func TestResolveConfig_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
	}{
		{"port too large", []Option{WithPort(65536)}},
		{"negative port", []Option{WithPort(-1)}},
		{"zero attempts", []Option{WithRetryMaxAttempts(0)}},
		{"unknown schema", []Option{WithSchema("ftp")}},
		{"empty hostname", []Option{WithHostname("")}},
		{"negative backoff", []Option{WithRetryBackoff(-time.Millisecond)}},
		{"negative read timeout", []Option{WithReadTimeout(-time.Second)}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ResolveConfig(append([]Option{WithEnvLookup(noEnv)}, tt.opts...)...)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestResolveConfig_EnvFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PDP_HOSTNAME=file-host\nPDP_PORT=7000\n"), 0o600))

	cfg, err := ResolveConfig(
		WithEnvLookup(envMap(map[string]string{EnvPort: "7100"})),
		WithEnvFile(path),
	)

	require.NoError(t, err)
	assert.Equal(t, "file-host", cfg.Hostname)
	assert.Equal(t, 7100, cfg.Port, "process environment wins over the file")
}

func TestResolveConfig_MissingEnvFile(t *testing.T) {
	t.Parallel()

	_, err := ResolveConfig(WithEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
