package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	GitHub    GitHubConfig    `mapstructure:"github" yaml:"github"`
	Jira      JiraConfig      `mapstructure:"jira" yaml:"jira"`
	Claude    ClaudeConfig    `mapstructure:"claude" yaml:"claude"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
	Detection DetectionConfig `mapstructure:"detection" yaml:"detection"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`

	// UseKeychain enables the OS keychain fallback for secrets
	UseKeychain bool `mapstructure:"use_keychain" yaml:"use_keychain"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type GitHubConfig struct {
	Token     string `mapstructure:"token" yaml:"token"`
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
}

type JiraConfig struct {
	URL           string `mapstructure:"url" yaml:"url"`
	Email         string `mapstructure:"email" yaml:"email"`
	APIToken      string `mapstructure:"api_token" yaml:"api_token"`
	PersonalToken string `mapstructure:"personal_token" yaml:"personal_token"` // Server/Data Center bearer token
}

type ClaudeConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

type DashboardConfig struct {
	// BackendURL is where the MCP server pushes issues for the dashboard
	BackendURL string `mapstructure:"backend_url" yaml:"backend_url"`
}

type DetectionConfig struct {
	MaxAnomalies int `mapstructure:"max_anomalies" yaml:"max_anomalies"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// DefaultClaudeModel is used when no model is configured
const DefaultClaudeModel = "claude-3-5-sonnet-20241022"

// Default returns default configuration
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8000",
			CORSOrigins:     []string{"http://localhost:3000"},
			ShutdownTimeout: 10 * time.Second,
		},
		GitHub: GitHubConfig{
			RateLimit: 10,
		},
		Claude: ClaudeConfig{
			Model:     DefaultClaudeModel,
			MaxTokens: 1024,
		},
		Dashboard: DashboardConfig{
			BackendURL: "http://localhost:8000",
		},
		Detection: DetectionConfig{
			MaxAnomalies: 20,
		},
		Log: LogConfig{
			Level: "info",
		},
		UseKeychain: true,
	}
}

// Load reads .env files, the optional config file and DEVAI_* variables,
// then applies the well-known unprefixed variables on top.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("http", map[string]any{
		"addr":             cfg.HTTP.Addr,
		"cors_origins":     cfg.HTTP.CORSOrigins,
		"shutdown_timeout": cfg.HTTP.ShutdownTimeout,
	})
	v.SetDefault("github.rate_limit", cfg.GitHub.RateLimit)
	v.SetDefault("claude.model", cfg.Claude.Model)
	v.SetDefault("claude.max_tokens", cfg.Claude.MaxTokens)
	v.SetDefault("dashboard.backend_url", cfg.Dashboard.BackendURL)
	v.SetDefault("detection.max_anomalies", cfg.Detection.MaxAnomalies)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("use_keychain", cfg.UseKeychain)

	v.SetEnvPrefix("DEVAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".devai")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".devai"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)
	if cfg.UseKeychain {
		applyKeychainFallback(cfg, NewKeyringManager())
	}
	return cfg, nil
}

// loadEnvFiles loads .env files; earlier files win since godotenv never
// overwrites a variable that is already set.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
	if envPath, err := findEnvFile(); err == nil {
		_ = godotenv.Load(envPath)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		homeEnv := filepath.Join(homeDir, ".devai", ".env")
		if _, err := os.Stat(homeEnv); err == nil {
			_ = godotenv.Load(homeEnv)
		}
	}
}

// applyEnvOverrides applies the variables the upstream tools already use
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	cfg.GitHub.RateLimit = GetInt("GITHUB_RATE_LIMIT", cfg.GitHub.RateLimit)
	cfg.Detection.MaxAnomalies = GetInt("MAX_ANOMALIES", cfg.Detection.MaxAnomalies)
	cfg.Log.JSON = GetBool("LOG_JSON", cfg.Log.JSON)

	if url := os.Getenv("JIRA_URL"); url != "" {
		cfg.Jira.URL = strings.TrimRight(url, "/")
	}
	cfg.Jira.Email = GetString("JIRA_EMAIL", GetString("JIRA_USERNAME", cfg.Jira.Email))
	if token := os.Getenv("JIRA_API_TOKEN"); token != "" {
		cfg.Jira.APIToken = token
	}
	if token := os.Getenv("JIRA_PERSONAL_TOKEN"); token != "" {
		cfg.Jira.PersonalToken = token
	}

	cfg.Claude.APIKey = GetString("ANTHROPIC_API_KEY", GetString("CLAUDE_API_KEY", cfg.Claude.APIKey))
	if model := os.Getenv("CLAUDE_MODEL"); model != "" {
		cfg.Claude.Model = model
	}

	if url := os.Getenv("BACKEND_API_URL"); url != "" {
		cfg.Dashboard.BackendURL = strings.TrimRight(url, "/")
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.HTTP.CORSOrigins = splitList(origins)
	}
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

// secretStore is the subset of KeyringManager used for fallback lookups
type secretStore interface {
	IsAvailable() bool
	Get(item string) (string, error)
}

// applyKeychainFallback fills secrets that neither env nor file provided
func applyKeychainFallback(cfg *Config, ks secretStore) {
	targets := []struct {
		item string
		dst  *string
	}{
		{KeyringGitHubTokenItem, &cfg.GitHub.Token},
		{KeyringJiraTokenItem, &cfg.Jira.APIToken},
		{KeyringAnthropicKeyItem, &cfg.Claude.APIKey},
	}

	var missing bool
	for _, t := range targets {
		if *t.dst == "" {
			missing = true
		}
	}
	if !missing || !ks.IsAvailable() {
		return
	}
	for _, t := range targets {
		if *t.dst != "" {
			continue
		}
		if v, err := ks.Get(t.item); err == nil && v != "" {
			*t.dst = v
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Redacted returns a copy safe to print
func (c *Config) Redacted() *Config {
	out := *c
	out.HTTP.CORSOrigins = append([]string(nil), c.HTTP.CORSOrigins...)
	out.GitHub.Token = MaskSecret(c.GitHub.Token)
	out.Jira.APIToken = MaskSecret(c.Jira.APIToken)
	out.Jira.PersonalToken = MaskSecret(c.Jira.PersonalToken)
	out.Claude.APIKey = MaskSecret(c.Claude.APIKey)
	return &out
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("http", c.HTTP)
	v.Set("github", c.GitHub)
	v.Set("jira", c.Jira)
	v.Set("claude", c.Claude)
	v.Set("dashboard", c.Dashboard)
	v.Set("detection", c.Detection)
	v.Set("log", c.Log)
	v.Set("use_keychain", c.UseKeychain)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
