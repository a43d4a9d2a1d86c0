package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "foreman.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "FOREMAN_PORT")
	setString(&cfg.Server.CORSOrigin, "FOREMAN_CORS_ORIGIN")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "FOREMAN_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "FOREMAN_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "FOREMAN_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "FOREMAN_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "FOREMAN_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")

	setString(&cfg.Model.BaseURL, "FOREMAN_MODEL_BASE_URL")
	setString(&cfg.Model.APIKey, "FOREMAN_MODEL_API_KEY")
	setString(&cfg.Model.Name, "FOREMAN_MODEL_NAME")
	setInt(&cfg.Model.MaxTokens, "FOREMAN_MODEL_MAX_TOKENS")
	setDuration(&cfg.Model.Timeout, "FOREMAN_MODEL_TIMEOUT")
	setInt(&cfg.Model.RequestsPerMinute, "FOREMAN_MODEL_RPM")
	setInt(&cfg.Model.MaxInFlight, "FOREMAN_MODEL_MAX_IN_FLIGHT")
	setInt(&cfg.Model.MaxRetries, "FOREMAN_MODEL_MAX_RETRIES")

	setInt(&cfg.Assistant.MaxIterations, "FOREMAN_MAX_ITERATIONS")
	setInt(&cfg.Assistant.ToolLoopThreshold, "FOREMAN_TOOL_LOOP_THRESHOLD")

	setInt64(&cfg.Cache.MaxCostBytes, "FOREMAN_CACHE_MAX_COST_BYTES")
	setDuration(&cfg.Cache.ConversationTTL, "FOREMAN_CACHE_CONVERSATION_TTL")

	setString(&cfg.Logging.Level, "FOREMAN_LOG_LEVEL")
	setString(&cfg.Logging.Service, "FOREMAN_LOG_SERVICE")

	setInt(&cfg.Breaker.MaxFailures, "FOREMAN_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Cooldown, "FOREMAN_BREAKER_COOLDOWN")

	setFloat64(&cfg.Rate.RequestsPerSecond, "FOREMAN_RATE_RPS")
	setInt(&cfg.Rate.Burst, "FOREMAN_RATE_BURST")

	setBool(&cfg.Telemetry.Enabled, "FOREMAN_OTEL_ENABLED")
	setString(&cfg.Telemetry.OTLPEndpoint, "FOREMAN_OTEL_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Model.Name == "" {
		return errors.New("model.name is required")
	}
	if cfg.Model.RequestsPerMinute < 1 {
		return errors.New("model.requests_per_minute must be >= 1")
	}
	if cfg.Model.MaxInFlight < 1 {
		return errors.New("model.max_in_flight must be >= 1")
	}
	if cfg.Assistant.MaxIterations < 1 {
		return errors.New("assistant.max_iterations must be >= 1")
	}
	if cfg.Assistant.ToolLoopThreshold < 1 {
		return errors.New("assistant.tool_loop_threshold must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
