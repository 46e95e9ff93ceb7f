package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
	Auth       AuthConfig
	Automation AutomationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     string `envconfig:"PORT" default:"4723"`
	Host     string `envconfig:"HOST" default:"0.0.0.0"`
	BasePath string `envconfig:"BASE_PATH" default:"/wd/hub"`
	// CORSOrigins is a comma separated allow list; empty admits any origin.
	CORSOrigins []string `envconfig:"CORS_ORIGINS"`
	// MaxConnections caps concurrently open connections; 0 is unlimited.
	MaxConnections int  `envconfig:"MAX_CONNECTIONS" default:"0"`
	Compress       bool `envconfig:"COMPRESS_RESPONSES" default:"true"`
}

// Address returns host:port for the listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	// Bodies adds request and response bodies to the access log.
	Bodies bool `envconfig:"LOG_BODIES" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"false"`
	// Scope is ip, session or global.
	Scope string `envconfig:"RATE_LIMIT_SCOPE" default:"ip"`
}

// AuthConfig enables HTTP basic auth when Username is set. Password may be
// plain text or a bcrypt hash.
type AuthConfig struct {
	Username string `envconfig:"AUTH_USERNAME"`
	Password string `envconfig:"AUTH_PASSWORD"`
}

// Enabled reports whether basic auth is configured.
func (a AuthConfig) Enabled() bool {
	return a.Username != ""
}

// AutomationConfig holds session and provider settings.
type AutomationConfig struct {
	Provider     string `envconfig:"PROVIDER" default:"virtual"`
	Fixture      string `envconfig:"DESKTOP_FIXTURE"`
	AllowShell   bool   `envconfig:"ALLOW_SHELL" default:"false"`
	ShellBinary  string `envconfig:"SHELL_BINARY" default:"powershell.exe"`
	ShellTempDir string `envconfig:"SHELL_TEMP_DIR"`
	// CleanupCycle is in seconds and doubles as the inactivity threshold.
	CleanupCycle      int  `envconfig:"SESSION_CLEANUP_CYCLE" default:"90"`
	Workers           int  `envconfig:"AUTOMATION_WORKERS" default:"8"`
	MaxElementHandles int  `envconfig:"MAX_ELEMENT_HANDLES" default:"0"`
	SystemClipboard   bool `envconfig:"SYSTEM_CLIPBOARD" default:"false"`
}

// CleanupInterval returns the cleanup cycle as a duration.
func (a AutomationConfig) CleanupInterval() time.Duration {
	return time.Duration(a.CleanupCycle) * time.Second
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	switch c.Automation.Provider {
	case "virtual":
	default:
		return fmt.Errorf("unknown automation provider %q", c.Automation.Provider)
	}
	if c.Automation.CleanupCycle < 0 {
		return fmt.Errorf("SESSION_CLEANUP_CYCLE must not be negative")
	}
	if c.Automation.Workers <= 0 {
		return fmt.Errorf("AUTOMATION_WORKERS must be positive")
	}
	if c.Automation.MaxElementHandles < 0 {
		return fmt.Errorf("MAX_ELEMENT_HANDLES must not be negative")
	}
	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("MAX_CONNECTIONS must not be negative")
	}
	switch c.RateLimit.Scope {
	case "ip", "session", "global":
	default:
		return fmt.Errorf("RATE_LIMIT_SCOPE must be ip, session or global, got %q", c.RateLimit.Scope)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}
	if c.Auth.Enabled() && c.Auth.Password == "" {
		return fmt.Errorf("AUTH_PASSWORD is required when AUTH_USERNAME is set")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     "4723",
			Host:     "0.0.0.0",
			BasePath: "/wd/hub",
			Compress: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           false,
			Scope:             "ip",
		},
		Automation: AutomationConfig{
			Provider:     "virtual",
			ShellBinary:  "powershell.exe",
			CleanupCycle: 90,
			Workers:      8,
		},
	}
}
