package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the themeforge configuration
type Config struct {
	Title     string          `yaml:"title"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	History   HistoryConfig   `yaml:"history"`
	Indicator IndicatorConfig `yaml:"indicator"`
	Preview   PreviewConfig   `yaml:"preview"`
	Presets   PresetsConfig   `yaml:"presets"`
	Keymap    KeymapConfig    `yaml:"keymap"`
	Export    ExportConfig    `yaml:"export"`
	Assistant AssistantConfig `yaml:"assistant"`
	API       *APIConfig      `yaml:"api,omitempty"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port  int    `yaml:"port"`
	Host  string `yaml:"host"`
	Debug bool   `yaml:"debug"`
}

// StoreConfig selects and configures the backend the document is persisted to
type StoreConfig struct {
	Type      string `yaml:"type"`                 // "memory", "file", "sqlite", "postgres", "redis", "s3"
	Key       string `yaml:"key,omitempty"`        // Storage key (default: "design-document")
	Path      string `yaml:"path,omitempty"`       // For file: directory; for sqlite: database file
	Table     string `yaml:"table,omitempty"`      // For sqlite/postgres: table name (default: "themeforge_kv")
	DSN       string `yaml:"dsn,omitempty"`        // For postgres: connection string (env vars expanded)
	URL       string `yaml:"url,omitempty"`        // For redis: redis:// URL (env vars expanded)
	Prefix    string `yaml:"prefix,omitempty"`     // For redis/s3: key prefix (default: "themeforge:" / "themeforge/")
	Endpoint  string `yaml:"endpoint,omitempty"`   // For s3: host:port
	Bucket    string `yaml:"bucket,omitempty"`     // For s3: bucket name
	AccessKey string `yaml:"access_key,omitempty"` // For s3 (env vars expanded)
	SecretKey string `yaml:"secret_key,omitempty"` // For s3 (env vars expanded)
	UseSSL    bool   `yaml:"use_ssl,omitempty"`    // For s3
	Timeout   string `yaml:"timeout,omitempty"`    // Per-operation timeout (e.g., "5s"). Default: 5s
}

// HistoryConfig bounds the undo history
type HistoryConfig struct {
	MaxDepth int `yaml:"max_depth"` // Maximum undo entries kept (0 = unlimited)
}

// IndicatorConfig holds the save indicator timings
type IndicatorConfig struct {
	QuietPeriod   string `yaml:"quiet_period,omitempty"`   // Silence before "saved" shows (default: 1s)
	SavedDuration string `yaml:"saved_duration,omitempty"` // How long "saved" stays visible (default: 2s)
}

// PreviewConfig holds preview rendering configuration
type PreviewConfig struct {
	Layouts []string `yaml:"layouts,omitempty"` // Layouts rendered in the live preview (default: all)
}

// PresetsConfig locates the preset library
type PresetsConfig struct {
	Dir   string `yaml:"dir,omitempty"` // Directory of *.md presets, relative to the config dir
	Watch bool   `yaml:"watch"`         // Reload presets when files change
}

// KeymapConfig holds keyboard shortcut bindings
type KeymapConfig struct {
	Undo []string `yaml:"undo,omitempty"`
	Redo []string `yaml:"redo,omitempty"`
}

// ExportConfig holds export configuration
type ExportConfig struct {
	ChromePath string `yaml:"chrome_path,omitempty"` // Browser used for page PDFs (default: looked up on PATH)
	Timeout    string `yaml:"timeout,omitempty"`     // Page PDF timeout (default: 30s)
	Minify     bool   `yaml:"minify"`                // Minify CSS and HTML exports
	CacheTTL   string `yaml:"cache_ttl,omitempty"`   // How long rendered exports are reused (default: 10m, "off" disables)
}

// AssistantConfig configures the MCP endpoint exposed to AI assistants
type AssistantConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Path         string `yaml:"path,omitempty"` // HTTP path of the streamable endpoint (default: /mcp)
	SanitizeText *bool  `yaml:"sanitize_text,omitempty"`
}

// APIConfig holds REST API configuration
type APIConfig struct {
	CORS      *CORSConfig      `yaml:"cors,omitempty"`
	RateLimit *RateLimitConfig `yaml:"rate_limit,omitempty"`
	Auth      *AuthConfig      `yaml:"auth,omitempty"`
}

// AuthConfig holds authentication configuration for the API
type AuthConfig struct {
	// APIKey is the required API key for mutating requests.
	// Supports environment variable expansion (e.g., "${API_KEY}" or "$API_KEY")
	APIKey string `yaml:"api_key,omitempty"`
	// HeaderName is the HTTP header name for the API key (default: "X-API-Key")
	// Also supports "Authorization: Bearer <token>" format when set to "Authorization"
	HeaderName string `yaml:"header_name,omitempty"`
}

// CORSConfig holds CORS configuration for the API
type CORSConfig struct {
	Origins []string `yaml:"origins,omitempty"` // Allowed origins (e.g., ["http://localhost:3000", "*"])
}

// RateLimitConfig holds rate limiting configuration for the API
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"` // Rate limit in requests per second (default: 50)
	Burst             int     `yaml:"burst,omitempty"`               // Burst size (default: 100)
	MaxTrackedIPs     int     `yaml:"max_tracked_ips,omitempty"`     // Per-IP limiter table size (default: 10000)
}

// GetKey returns the storage key (default: "design-document")
func (c StoreConfig) GetKey() string {
	if c.Key == "" {
		return "design-document"
	}
	return c.Key
}

// GetTable returns the kv table name (default: "themeforge_kv")
func (c StoreConfig) GetTable() string {
	if c.Table == "" {
		return "themeforge_kv"
	}
	return c.Table
}

// GetTimeout returns the per-operation timeout (default: 5s)
func (c StoreConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 5*time.Second)
}

// GetDSN returns the postgres DSN with environment variables expanded
func (c StoreConfig) GetDSN() string {
	return os.ExpandEnv(c.DSN)
}

// GetURL returns the redis URL with environment variables expanded
func (c StoreConfig) GetURL() string {
	return os.ExpandEnv(c.URL)
}

// GetAccessKey returns the s3 access key with environment variables expanded
func (c StoreConfig) GetAccessKey() string {
	return os.ExpandEnv(c.AccessKey)
}

// GetSecretKey returns the s3 secret key with environment variables expanded
func (c StoreConfig) GetSecretKey() string {
	return os.ExpandEnv(c.SecretKey)
}

// GetQuietPeriod returns the quiet period before "saved" shows (default: 1s)
func (c IndicatorConfig) GetQuietPeriod() time.Duration {
	return parseDuration(c.QuietPeriod, time.Second)
}

// GetSavedDuration returns how long "saved" stays visible (default: 2s)
func (c IndicatorConfig) GetSavedDuration() time.Duration {
	return parseDuration(c.SavedDuration, 2*time.Second)
}

// GetTimeout returns the page PDF timeout (default: 30s)
func (c ExportConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// GetCacheTTL returns how long rendered exports are reused; 0 disables the
// cache.
func (c ExportConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == "off" {
		return 0
	}
	return parseDuration(c.CacheTTL, 10*time.Minute)
}

// GetPath returns the MCP endpoint path (default: /mcp)
func (c AssistantConfig) GetPath() string {
	if c.Path == "" {
		return "/mcp"
	}
	return c.Path
}

// ShouldSanitizeText returns whether assistant-provided copy is stripped of HTML (default: true)
func (c AssistantConfig) ShouldSanitizeText() bool {
	if c.SanitizeText == nil {
		return true
	}
	return *c.SanitizeText
}

// GetCORSOrigins returns the configured CORS origins, or nil if not configured
func (c *APIConfig) GetCORSOrigins() []string {
	if c == nil || c.CORS == nil {
		return nil
	}
	return c.CORS.Origins
}

// GetRateLimitRPS returns the rate limit in requests per second (default: 50)
func (c *APIConfig) GetRateLimitRPS() float64 {
	if c == nil || c.RateLimit == nil || c.RateLimit.RequestsPerSecond <= 0 {
		return 50
	}
	return c.RateLimit.RequestsPerSecond
}

// GetRateLimitBurst returns the burst size (default: 100)
func (c *APIConfig) GetRateLimitBurst() int {
	if c == nil || c.RateLimit == nil || c.RateLimit.Burst <= 0 {
		return 100
	}
	return c.RateLimit.Burst
}

// GetMaxTrackedIPs returns the size of the per-IP limiter table.
func (c *APIConfig) GetMaxTrackedIPs() int {
	if c == nil || c.RateLimit == nil || c.RateLimit.MaxTrackedIPs <= 0 {
		return 10000
	}
	return c.RateLimit.MaxTrackedIPs
}

// IsAuthEnabled returns true if API authentication is configured
func (c *APIConfig) IsAuthEnabled() bool {
	if c == nil || c.Auth == nil {
		return false
	}
	return c.Auth.GetAPIKey() != ""
}

// GetAPIKey returns the configured API key with environment variable expansion
func (c *AuthConfig) GetAPIKey() string {
	if c == nil || c.APIKey == "" {
		return ""
	}
	return os.ExpandEnv(c.APIKey)
}

// GetHeaderName returns the header name for authentication (default: "X-API-Key")
func (c *AuthConfig) GetHeaderName() string {
	if c == nil || c.HeaderName == "" {
		return "X-API-Key"
	}
	return c.HeaderName
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Title: "themeforge",
		Server: ServerConfig{
			Port:  8080,
			Host:  "localhost",
			Debug: false,
		},
		Store: StoreConfig{
			Type: "file",
			Path: ".themeforge",
		},
		History: HistoryConfig{
			MaxDepth: 200,
		},
		Presets: PresetsConfig{
			Dir:   "presets",
			Watch: true,
		},
		Keymap: KeymapConfig{
			Undo: []string{"mod+z"},
			Redo: []string{"mod+shift+z", "mod+y"},
		},
		Export: ExportConfig{
			Minify: true,
		},
	}
}

// Load loads configuration from a YAML file
// If the file doesn't exist, returns the default configuration
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadFromDir looks for themeforge.yaml, then themeforge.yml, in the given directory.
// If neither is found, returns the default configuration
func LoadFromDir(dir string) (*Config, error) {
	yamlPath := filepath.Join(dir, "themeforge.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return Load(yamlPath)
	}
	return Load(filepath.Join(dir, "themeforge.yml"))
}

// Save writes the configuration to a YAML file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
