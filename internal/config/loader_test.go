package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.MaxConns != 15 {
		t.Errorf("expected max_conns 15, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Model.RequestsPerMinute != 60 {
		t.Errorf("expected 60 requests per minute, got %d", cfg.Model.RequestsPerMinute)
	}
	if cfg.Model.MaxInFlight != 10 {
		t.Errorf("expected 10 in-flight, got %d", cfg.Model.MaxInFlight)
	}
	if cfg.Assistant.MaxIterations != 5 {
		t.Errorf("expected 5 max iterations, got %d", cfg.Assistant.MaxIterations)
	}
	if cfg.Cache.ConversationTTL != 24*time.Hour {
		t.Errorf("expected 24h conversation TTL, got %v", cfg.Cache.ConversationTTL)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
model:
  name: "gpt-4.1-mini"
  requests_per_minute: 30
assistant:
  max_iterations: 3
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Model.Name != "gpt-4.1-mini" {
		t.Errorf("expected model override, got %s", cfg.Model.Name)
	}
	if cfg.Model.RequestsPerMinute != 30 {
		t.Errorf("expected 30 requests per minute, got %d", cfg.Model.RequestsPerMinute)
	}
	if cfg.Assistant.MaxIterations != 3 {
		t.Errorf("expected 3 max iterations, got %d", cfg.Assistant.MaxIterations)
	}
	// Unchanged fields keep defaults
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL, got %s", cfg.NATS.URL)
	}
}

func TestLoadYAMLMissingFileIsFine(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	t.Setenv("FOREMAN_PORT", "7070")
	t.Setenv("FOREMAN_MODEL_NAME", "gpt-4o")
	t.Setenv("FOREMAN_MAX_ITERATIONS", "8")
	t.Setenv("DATABASE_URL", "postgres://env-host/foreman")
	t.Setenv("FOREMAN_OTEL_ENABLED", "true")
	t.Setenv("FOREMAN_MODEL_TIMEOUT", "90s")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected env port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Model.Name != "gpt-4o" {
		t.Errorf("expected env model, got %s", cfg.Model.Name)
	}
	if cfg.Assistant.MaxIterations != 8 {
		t.Errorf("expected env max iterations 8, got %d", cfg.Assistant.MaxIterations)
	}
	if cfg.Postgres.DSN != "postgres://env-host/foreman" {
		t.Errorf("expected env DSN, got %s", cfg.Postgres.DSN)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("expected telemetry enabled from env")
	}
	if cfg.Model.Timeout != 90*time.Second {
		t.Errorf("expected 90s timeout, got %v", cfg.Model.Timeout)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"empty dsn", func(c *Config) { c.Postgres.DSN = "" }},
		{"empty model", func(c *Config) { c.Model.Name = "" }},
		{"zero rpm", func(c *Config) { c.Model.RequestsPerMinute = 0 }},
		{"zero in-flight", func(c *Config) { c.Model.MaxInFlight = 0 }},
		{"zero iterations", func(c *Config) { c.Assistant.MaxIterations = 0 }},
		{"zero loop threshold", func(c *Config) { c.Assistant.ToolLoopThreshold = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			if err := validate(&cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
