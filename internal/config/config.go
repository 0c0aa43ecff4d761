package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	// NodeID seeds the snowflake ID generator; unique per replica.
	NodeID      int64

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBAutoMigrate     bool

	RateLimit   RateLimitConfig
	Report      ReportConfig
	MetricsPush MetricsPushConfig
}

// MetricsPushConfig ships the Prometheus registry to a collector for
// deployments that cannot be scraped.
type MetricsPushConfig struct {
	// Exporter is "", "pushgateway" or "remote_write"; empty disables pushing.
	Exporter        string
	Endpoint        string
	AuthToken       string
	IntervalSeconds int
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Report runs per second allowed per branch, with burst.
	ReportRate  float64
	ReportBurst int
	// Excel exports are heavier and limited separately.
	ExportRate  float64
	ExportBurst int
	// One export per branch runs at a time; the lock expires after this.
	ExportLockTTLSeconds int
}

type ReportConfig struct {
	Timezone          string
	VATRate           string
	MaxPeriodDays     int
	DeductionPrefixes []string

	// TaxonomySource is "database" or "file".
	TaxonomySource          string
	TaxonomyCacheTTLSeconds int
}

const (
	TaxonomySourceDatabase = "database"
	TaxonomySourceFile     = "file"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewTaxonomyHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "backoffice"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		NodeID:            int64(getenvInt("SNOWFLAKE_NODE_ID", 1)),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "postgres"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBAutoMigrate:     getenvBool("DATABASE_AUTO_MIGRATE", true),
		RateLimit: RateLimitConfig{
			Enabled:              getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:            strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "localhost:6379")),
			RedisPassword:        strings.TrimSpace(getenv("RATE_LIMIT_REDIS_PASSWORD", "")),
			RedisDB:              getenvInt("RATE_LIMIT_REDIS_DB", 0),
			ReportRate:           getenvFloat("RATE_LIMIT_REPORT_RATE", 2),
			ReportBurst:          getenvInt("RATE_LIMIT_REPORT_BURST", 10),
			ExportRate:           getenvFloat("RATE_LIMIT_EXPORT_RATE", 0.2),
			ExportBurst:          getenvInt("RATE_LIMIT_EXPORT_BURST", 2),
			ExportLockTTLSeconds: getenvInt("RATE_LIMIT_EXPORT_LOCK_TTL", 60),
		},
		Report: ReportConfig{
			Timezone:                getenv("REPORT_TIMEZONE", "Asia/Bangkok"),
			VATRate:                 getenv("REPORT_VAT_RATE", "0.07"),
			MaxPeriodDays:           getenvInt("REPORT_MAX_PERIOD_DAYS", 366),
			DeductionPrefixes:       parseList(getenv("REPORT_DEDUCTION_PREFIXES", "หักเงินมัดจำ,deduct deposit")),
			TaxonomySource:          normalizeTaxonomySource(getenv("REPORT_TAXONOMY_SOURCE", TaxonomySourceDatabase)),
			TaxonomyCacheTTLSeconds: getenvInt("REPORT_TAXONOMY_CACHE_TTL", 300),
		},
		MetricsPush: MetricsPushConfig{
			Exporter:        strings.ToLower(strings.TrimSpace(getenv("METRICS_PUSH_EXPORTER", ""))),
			Endpoint:        strings.TrimSpace(getenv("METRICS_PUSH_ENDPOINT", "")),
			AuthToken:       strings.TrimSpace(getenv("METRICS_PUSH_AUTH_TOKEN", "")),
			IntervalSeconds: getenvInt("METRICS_PUSH_INTERVAL", 15),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func normalizeTaxonomySource(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case TaxonomySourceFile:
		return TaxonomySourceFile
	default:
		return TaxonomySourceDatabase
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
