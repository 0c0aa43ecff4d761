package observability

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/backoffice/internal/config"
)

// Config is the observability slice of the process configuration. Service
// identity comes from config.Config; exporter settings use the OTEL_* names.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel            string
	LogFormat           string
	LogSampleInitial    int
	LogSampleThereafter int

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
	MetricInterval       time.Duration
}

func LoadConfig(cfg config.Config) Config {
	return loadConfig(cfg, os.Getenv)
}

func loadConfig(cfg config.Config, lookup func(string) string) Config {
	env := envReader(lookup)

	protocol := env.lower("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	// OTEL_EXPORTER_OTLP_TRACES_PROTOCOL overrides the shared protocol.
	protocol = env.lower("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", protocol)

	return Config{
		ServiceName: firstNonEmpty(cfg.AppName, "backoffice"),
		Environment: env.str("DEPLOYMENT_ENV", cfg.Environment),
		Version:     env.str("SERVICE_VERSION", cfg.AppVersion),

		LogLevel:            env.lower("LOG_LEVEL", "info"),
		LogFormat:           env.lower("LOG_FORMAT", "json"),
		LogSampleInitial:    env.integer("LOG_SAMPLE_INITIAL", 100),
		LogSampleThereafter: env.integer("LOG_SAMPLE_THEREAFTER", 100),

		OtelEnabled:          env.boolean("OTEL_ENABLED", true),
		OtelExporterEndpoint: env.str("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint),
		OtelExporterProtocol: protocol,
		OtelSamplingRatio:    env.float("OTEL_SAMPLING_RATIO", 0.1),
		MetricInterval:       time.Duration(env.integer("OTEL_METRIC_EXPORT_INTERVAL", 10000)) * time.Millisecond,
	}
}

// Debug turns on development logging: explicit debug level or a
// non-production environment name.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

type envReader func(string) string

func (e envReader) str(key, def string) string {
	return firstNonEmpty(e(key), def)
}

func (e envReader) lower(key, def string) string {
	return strings.ToLower(e.str(key, def))
}

func (e envReader) boolean(key string, def bool) bool {
	switch e.lower(key, "") {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func (e envReader) integer(key string, def int) int {
	if v, err := strconv.Atoi(e.str(key, "")); err == nil {
		return v
	}
	return def
}

func (e envReader) float(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(e.str(key, ""), 64); err == nil {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
