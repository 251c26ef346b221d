package config

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"log/slog"

	"github.com/patrickfnielsen/pdpclient/internal/util"
)

var VERSION = 0.2
var Enviroment = GetEnv("PDP_ENV", "PROD")
var LogLevel = slog.Level(GetEnv("PDP_LOG_LEVEL", 0))

var ListenAddress = GetEnv("PDP_LISTEN_ADDRESS", ":3000")
var MetricsEnabled = GetEnv("PDP_METRICS_ENABLED", true)
var MetricsNamespace = GetEnv("PDP_METRICS_NAMESPACE", "pdp_client")

// The remote PDP itself is configured by the PDP_* variables read in
// pkg/pdp (PDP_HOSTNAME, PDP_PORT, ...), which also pick up values from .env
// through the autoload above.

func GetEnv[T util.EnvType](envName string, defaultValue T) T {
	return util.ParseEnv(os.LookupEnv, envName, defaultValue)
}
