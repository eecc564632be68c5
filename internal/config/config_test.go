package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.Completion.Model != "gpt-3.5-turbo" {
		t.Errorf("model = %s, want gpt-3.5-turbo", cfg.Completion.Model)
	}
	if cfg.Completion.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", cfg.Completion.Temperature)
	}
	if cfg.Pipeline.DefaultLimit != 5 {
		t.Errorf("default limit = %d, want 5", cfg.Pipeline.DefaultLimit)
	}
	if cfg.Evaluation.Iterations != 10 || cfg.Evaluation.Cooldown != time.Second {
		t.Errorf("evaluation defaults = %d/%v", cfg.Evaluation.Iterations, cfg.Evaluation.Cooldown)
	}
	if cfg.LoadTest.Users != 10 {
		t.Errorf("load test users = %d, want 10", cfg.LoadTest.Users)
	}
	if cfg.Bus.Type != "memory" {
		t.Errorf("bus type = %s, want memory", cfg.Bus.Type)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log defaults = %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.Address() != "0.0.0.0:8080" {
		t.Errorf("address = %s", cfg.Address())
	}
}

func TestLoadFromYAML(t *testing.T) {
	content := `
port: 9090
completion:
  model: gpt-4
  temperature: 0.2
shodan:
  api_key: file-key
evaluation:
  iterations: 3
  cooldown: 250ms
load_test:
  users: 25
log:
  level: debug
  format: json
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Port)
	}
	if cfg.Completion.Model != "gpt-4" || cfg.Completion.Temperature != 0.2 {
		t.Errorf("completion = %s/%v", cfg.Completion.Model, cfg.Completion.Temperature)
	}
	if cfg.Shodan.APIKey != "file-key" {
		t.Errorf("shodan api key = %s", cfg.Shodan.APIKey)
	}
	if cfg.Evaluation.Iterations != 3 || cfg.Evaluation.Cooldown != 250*time.Millisecond {
		t.Errorf("evaluation = %d/%v", cfg.Evaluation.Iterations, cfg.Evaluation.Cooldown)
	}
	if cfg.LoadTest.Users != 25 {
		t.Errorf("users = %d, want 25", cfg.LoadTest.Users)
	}

	// Values the file does not mention keep their defaults.
	if cfg.Completion.MaxTokens != 500 {
		t.Errorf("max tokens = %d, want 500", cfg.Completion.MaxTokens)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	content := "port: 9090\nshodan:\n  api_key: file-key\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("VULNSCOUT_PORT", "7070")
	t.Setenv("SHODAN_API_KEY", "env-key")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 7070 {
		t.Errorf("port = %d, env override should win", cfg.Port)
	}
	if cfg.Shodan.APIKey != "env-key" {
		t.Errorf("shodan api key = %s, env override should win", cfg.Shodan.APIKey)
	}
	if cfg.Completion.Model != "gpt-4o" {
		t.Errorf("model = %s, env override should win", cfg.Completion.Model)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		setDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: "port must be between",
		},
		{
			name:    "empty model",
			mutate:  func(c *Config) { c.Completion.Model = "" },
			wantErr: "model must not be empty",
		},
		{
			name:    "temperature too high",
			mutate:  func(c *Config) { c.Completion.Temperature = 2.5 },
			wantErr: "temperature must be between",
		},
		{
			name:    "negative cooldown",
			mutate:  func(c *Config) { c.Evaluation.Cooldown = -time.Second },
			wantErr: "cooldown must not be negative",
		},
		{
			name:    "zero users",
			mutate:  func(c *Config) { c.LoadTest.Users = 0 },
			wantErr: "users must be positive",
		},
		{
			name:    "unknown bus type",
			mutate:  func(c *Config) { c.Bus.Type = "nats" },
			wantErr: "invalid bus type",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Port = 0
	cfg.Completion.Model = ""
	cfg.Bus.Type = "nats"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"port must be", "model must not", "invalid bus type"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}
