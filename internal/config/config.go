package config

import (
	"errors"
	"net/url"
	"os"
	"regexp"
	"strconv"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// tableNameRe restricts STORE_TABLE to plain SQL identifiers.
var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds all job settings, populated from environment variables.
type Config struct {
	SourcePath string
	StorePath  string
	StoreTable string
	ExportPath string

	// SkipInvalidRows drops rows that fail normalization instead of
	// aborting the run.
	SkipInvalidRows bool

	LogLevel  string
	LogFormat string

	// Optional record fan-out; disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Optional metrics push; disabled when PushgatewayURL is empty.
	PushgatewayURL string
	MetricsJob     string
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is read first if present;
// variables already set in the environment take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	skipInvalid, err := parseBool("SKIP_INVALID_ROWS", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SourcePath:      sharedcfg.EnvOrDefault("SOURCE_PATH", "data/Border_Crossing_Entry_Data.csv"),
		StorePath:       sharedcfg.EnvOrDefault("STORE_PATH", "sql/data.sqlite"),
		StoreTable:      sharedcfg.EnvOrDefault("STORE_TABLE", "data"),
		ExportPath:      sharedcfg.EnvOrDefault("EXPORT_PATH", "json/data.json"),
		SkipInvalidRows: skipInvalid,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		KafkaBrokers:    sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "border-crossings"),
		PushgatewayURL:  os.Getenv("PUSHGATEWAY_URL"),
		MetricsJob:      sharedcfg.EnvOrDefault("METRICS_JOB", "border_crossing_etl"),
	}

	if !tableNameRe.MatchString(cfg.StoreTable) {
		return nil, errors.New("invalid STORE_TABLE")
	}
	if cfg.StorePath == cfg.ExportPath {
		return nil, errors.New("STORE_PATH and EXPORT_PATH must differ")
	}
	if cfg.PushgatewayURL != "" {
		if u, err := url.Parse(cfg.PushgatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, errors.New("invalid PUSHGATEWAY_URL")
		}
	}

	return cfg, nil
}

// KafkaEnabled reports whether records should be published after export.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.New("invalid " + key)
	}
	return v, nil
}
