package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Activity  ActivityConfig  `yaml:"activity"`
	Transport TransportConfig `yaml:"transport"`
	MCP       MCPConfig       `yaml:"mcp"`
}

type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

type DBConfig struct {
	Path string `yaml:"path"`
	// SeedPath replaces the embedded catalog seed when set.
	SeedPath string `yaml:"seed_path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	OAuth         OAuthConfig   `yaml:"oauth"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SecureCookies bool          `yaml:"secure_cookies"`
}

type OAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	UserInfoURL  string `yaml:"userinfo_url"`
}

// Enabled reports whether enough OAuth settings are present to mount sign-in routes.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

type LifecycleConfig struct {
	// Drafting enables the Drafted pre-claim state.
	Drafting bool `yaml:"drafting"`
	MaxBulk  int  `yaml:"max_bulk"`
}

type ActivityConfig struct {
	ListLimit int `yaml:"list_limit"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "http" or "stdio"
}

type MCPConfig struct {
	// ActorEmail identifies the acting user when the MCP server runs over stdio.
	ActorEmail string `yaml:"actor_email"`
	ActorName  string `yaml:"actor_name"`
}

// Default returns the configuration used when no file or environment overrides are given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			BaseURL: "http://localhost:8080",
		},
		DB: DBConfig{
			Path: "daf.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Auth: AuthConfig{
			OAuth: OAuthConfig{
				UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
			},
			SessionTTL: 30 * 24 * time.Hour,
		},
		Lifecycle: LifecycleConfig{
			MaxBulk: 100,
		},
		Activity: ActivityConfig{
			ListLimit: 50,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("DAF_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Lifecycle.MaxBulk <= 0 {
		return fmt.Errorf("lifecycle.max_bulk must be positive")
	}
	if c.Activity.ListLimit <= 0 {
		return fmt.Errorf("activity.list_limit must be positive")
	}
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("unknown transport mode %q", c.Transport.Mode)
	}
	if c.Transport.Mode == "stdio" && c.MCP.ActorEmail == "" {
		return fmt.Errorf("mcp.actor_email is required in stdio mode")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("DAF_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("DAF_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid DAF_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if baseURL := os.Getenv("DAF_BASE_URL"); baseURL != "" {
		cfg.Server.BaseURL = baseURL
	}
	if dbPath := os.Getenv("DAF_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if seedPath := os.Getenv("DAF_SEED_PATH"); seedPath != "" {
		cfg.DB.SeedPath = seedPath
	}
	if level := os.Getenv("DAF_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("DAF_LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}
	if id := os.Getenv("DAF_OAUTH_CLIENT_ID"); id != "" {
		cfg.Auth.OAuth.ClientID = id
	}
	if secret := os.Getenv("DAF_OAUTH_CLIENT_SECRET"); secret != "" {
		cfg.Auth.OAuth.ClientSecret = secret
	}
	if redirect := os.Getenv("DAF_OAUTH_REDIRECT_URL"); redirect != "" {
		cfg.Auth.OAuth.RedirectURL = redirect
	}
	if drafting := os.Getenv("DAF_LIFECYCLE_DRAFTING"); drafting != "" {
		enabled, err := strconv.ParseBool(drafting)
		if err != nil {
			return fmt.Errorf("invalid DAF_LIFECYCLE_DRAFTING: %w", err)
		}
		cfg.Lifecycle.Drafting = enabled
	}
	if mode := os.Getenv("DAF_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if email := os.Getenv("DAF_MCP_ACTOR_EMAIL"); email != "" {
		cfg.MCP.ActorEmail = email
	}
	if name := os.Getenv("DAF_MCP_ACTOR_NAME"); name != "" {
		cfg.MCP.ActorName = name
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
