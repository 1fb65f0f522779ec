// Package config provides configuration management for the ThinkGate server.
// It handles loading and parsing the YAML configuration file and applies
// environment variable overrides for the settings that are typically injected
// at deploy time: the listening port and the upstream endpoint credentials.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default listening port when neither the config file nor the environment
// specifies one.
const defaultPort = 8317

// defaultRequestTimeout bounds non-streaming upstream calls, in seconds.
const defaultRequestTimeout = 300

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Port is the network port on which the API server will listen.
	Port int `yaml:"port"`

	// Debug enables or disables debug-level logging.
	Debug bool `yaml:"debug"`

	// LoggingToFile switches log output from stdout to rotating files.
	LoggingToFile bool `yaml:"logging-to-file"`

	// APIKeys is an optional list of keys for authenticating clients to this
	// gateway. When empty, all requests are accepted.
	APIKeys []string `yaml:"api-keys"`

	// Upstream describes the backend chat-completions endpoint being proxied.
	Upstream Upstream `yaml:"upstream"`

	// Features holds the translation feature flags.
	Features Features `yaml:"features"`

	// ModelAliases maps inbound model identifiers to upstream model
	// identifiers. Entries here extend or override the built-in table.
	ModelAliases map[string]string `yaml:"model-aliases"`

	// RequestTimeout is the per-request deadline for non-streaming upstream
	// calls, in seconds. Zero means the default.
	RequestTimeout int `yaml:"request-timeout"`
}

// Upstream holds the connection settings for the proxied backend.
type Upstream struct {
	// BaseURL is the base URL of the upstream OpenAI-style API, without the
	// trailing /chat/completions segment.
	BaseURL string `yaml:"base-url"`

	// APIKey is sent as a bearer token on every upstream call.
	APIKey string `yaml:"api-key"`
}

// Features holds the translation feature flags. The flags are read-only for
// the lifetime of a request; the config watcher may swap the whole snapshot
// between requests.
type Features struct {
	// ReasoningDisplay merges the upstream reasoning channel into the primary
	// content channel, wrapped in <think> markers.
	ReasoningDisplay bool `yaml:"reasoning-display"`

	// ThinkingMode attaches enable_thinking to upstream requests. When off,
	// the key is omitted entirely.
	ThinkingMode bool `yaml:"thinking-mode"`

	// DetailedPrompts injects or extends a system prompt encouraging detailed
	// answers.
	DetailedPrompts bool `yaml:"detailed-prompts"`
}

// LoadConfig reads a YAML configuration file from the given path, unmarshals
// it into a Config struct, applies environment variable overrides and
// defaults, and returns it.
func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnvOverrides()
	config.applyDefaults()

	if config.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("upstream base-url is required (set upstream.base-url or THINKGATE_UPSTREAM_BASE_URL)")
	}

	return &config, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("THINKGATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("THINKGATE_UPSTREAM_BASE_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("THINKGATE_UPSTREAM_API_KEY"); v != "" {
		c.Upstream.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
}
