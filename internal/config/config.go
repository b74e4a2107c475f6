package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read at startup
const (
	EnvProjectID = "PROJECT_ID"
	EnvAPIToken  = "API_TOKEN"
	EnvBaseURL   = "REPLACE_SLOT_CONTENT_API_URL"
	EnvLogLevel  = "SLOTMATE_LOG_LEVEL"
	EnvAddr      = "SLOTMATE_ADDR"
	EnvTimeout   = "SLOTMATE_TIMEOUT_SECONDS"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ./config in current directory
func GetConfigDir() string {
	if !configDirInit {
		cwd, err := os.Getwd()
		if err == nil {
			configDir = filepath.Join(cwd, "config")
		}
		configDirInit = true
	}
	return configDir
}

// Config application configuration structure
type Config struct {
	Plasmic PlasmicConfig `yaml:"plasmic"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// PlasmicConfig Codegen API configuration
type PlasmicConfig struct {
	ProjectID      string `yaml:"project_id"`
	APIToken       string `yaml:"api_token"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 0 disables the client timeout
	UserAgent      string `yaml:"user_agent"`
}

// ServerConfig HTTP host configuration
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Console    bool   `yaml:"console"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Plasmic: PlasmicConfig{
			TimeoutSeconds: 30,
			UserAgent:      "slotmate/0.1",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:      "info",
			Dir:        LogDir(),
			MaxSizeMB:  10,
			MaxBackups: 7,
			MaxAgeDays: 30,
			Console:    false,
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path
func LogDir() string {
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads config.yaml (optional), then layers .secrets, .env and the
// process environment on top, and validates the result.
func Load() (*Config, error) {
	cfg, err := loadFile()
	if err != nil {
		return nil, err
	}

	secrets, err := LoadSecrets()
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets: %w", err)
	}
	cfg.applySecrets(secrets)

	if err := LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile() (*Config, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// applySecrets fills credentials that the config file left empty
func (c *Config) applySecrets(s *Secrets) {
	if c.Plasmic.ProjectID == "" {
		c.Plasmic.ProjectID = s.Get(EnvProjectID)
	}
	if c.Plasmic.APIToken == "" {
		c.Plasmic.APIToken = s.Get(EnvAPIToken)
	}
	if c.Plasmic.BaseURL == "" {
		c.Plasmic.BaseURL = s.Get(EnvBaseURL)
	}
}

// applyEnv overrides values with non-empty environment variables
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvProjectID, &c.Plasmic.ProjectID)
	set(EnvAPIToken, &c.Plasmic.APIToken)
	set(EnvBaseURL, &c.Plasmic.BaseURL)
	set(EnvLogLevel, &c.Log.Level)
	set(EnvAddr, &c.Server.Addr)

	if v, ok := lookup(EnvTimeout); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.Plasmic.TimeoutSeconds = n
		}
	}
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Credentials live in .secrets or the environment, never in config.yaml
	out := *cfg
	out.Plasmic.APIToken = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	content := "# slotmate configuration file\n# Credentials: set PROJECT_ID, API_TOKEN and REPLACE_SLOT_CONTENT_API_URL in .secrets or the environment\n\n" + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Plasmic.ProjectID) == "" {
		return fmt.Errorf("config error: plasmic.project_id cannot be empty (set %s)", EnvProjectID)
	}
	if strings.TrimSpace(c.Plasmic.APIToken) == "" {
		return fmt.Errorf("config error: plasmic.api_token cannot be empty (set %s)", EnvAPIToken)
	}
	if strings.TrimSpace(c.Plasmic.BaseURL) == "" {
		return fmt.Errorf("config error: plasmic.base_url cannot be empty (set %s)", EnvBaseURL)
	}
	if !strings.HasPrefix(c.Plasmic.BaseURL, "http://") && !strings.HasPrefix(c.Plasmic.BaseURL, "https://") {
		return fmt.Errorf("config error: plasmic.base_url must be an http(s) URL, got %q", c.Plasmic.BaseURL)
	}
	if c.Plasmic.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: plasmic.timeout_seconds cannot be negative")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: log.level must be one of debug, info, warn, error")
	}

	return nil
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	return fmt.Sprintf(`slotmate configuration:
  Plasmic:
    Project ID: %s
    API Token: %s
    Base URL: %s
    Timeout Seconds: %d
    User Agent: %s
  Server:
    Addr: %s
  Log:
    Level: %s
    Dir: %s
    Console: %v`,
		displayValue(c.Plasmic.ProjectID),
		redactAPIKey(c.Plasmic.APIToken),
		displayValue(c.Plasmic.BaseURL),
		c.Plasmic.TimeoutSeconds,
		c.Plasmic.UserAgent,
		c.Server.Addr,
		c.Log.Level,
		c.Log.Dir,
		c.Log.Console,
	)
}

func displayValue(value string) string {
	if value == "" {
		return "(not configured)"
	}
	return value
}

func redactAPIKey(value string) string {
	if value == "" {
		return "(not configured)"
	}
	if len(value) > 8 {
		return value[:8] + "..."
	}
	return "***"
}
