package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
port: 9000
debug: true
upstream:
  base-url: https://api.example.com/v1
  api-key: secret
features:
  reasoning-display: true
  thinking-mode: true
model-aliases:
  my-model: llama-3.1-70b-instruct
request-timeout: 60
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.Upstream.BaseURL != "https://api.example.com/v1" || cfg.Upstream.APIKey != "secret" {
		t.Errorf("Upstream = %+v", cfg.Upstream)
	}
	if !cfg.Features.ReasoningDisplay || !cfg.Features.ThinkingMode || cfg.Features.DetailedPrompts {
		t.Errorf("Features = %+v", cfg.Features)
	}
	if cfg.ModelAliases["my-model"] != "llama-3.1-70b-instruct" {
		t.Errorf("ModelAliases = %v", cfg.ModelAliases)
	}
	if cfg.RequestTimeout != 60 {
		t.Errorf("RequestTimeout = %d", cfg.RequestTimeout)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
upstream:
  base-url: https://api.example.com/v1
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != defaultPort {
		t.Errorf("Port = %d, want default %d", cfg.Port, defaultPort)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Errorf("RequestTimeout = %d, want default %d", cfg.RequestTimeout, defaultRequestTimeout)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("THINKGATE_PORT", "7777")
	t.Setenv("THINKGATE_UPSTREAM_BASE_URL", "https://override.example.com")
	t.Setenv("THINKGATE_UPSTREAM_API_KEY", "env-key")

	path := writeConfig(t, `
port: 9000
upstream:
  base-url: https://api.example.com/v1
  api-key: file-key
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 7777 {
		t.Errorf("Port = %d, env must override file", cfg.Port)
	}
	if cfg.Upstream.BaseURL != "https://override.example.com" {
		t.Errorf("BaseURL = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.APIKey != "env-key" {
		t.Errorf("APIKey = %q", cfg.Upstream.APIKey)
	}
}

func TestLoadConfig_MissingBaseURL(t *testing.T) {
	path := writeConfig(t, "port: 9000\n")

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig must fail without an upstream base URL")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig must fail for a missing file")
	}
}
