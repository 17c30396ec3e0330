package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/riskradar/riskradar/internal/risk"
)

// Config holds all application settings. The risk policy section is loaded
// once at startup and treated as read-only afterwards.
type Config struct {
	// GitHub configuration
	GitHub GitHubConfig `yaml:"github" mapstructure:"github"`

	// Webhook server configuration
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Audit trace storage
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// LLM narrative generation (optional)
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Risk scoring policy
	Risk *risk.Config `yaml:"risk" mapstructure:"risk"`
}

type GitHubConfig struct {
	Token     string `yaml:"token" mapstructure:"token"`
	RateLimit int    `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
}

type ServerConfig struct {
	Addr          string `yaml:"addr" mapstructure:"addr"`
	WebhookSecret string `yaml:"webhook_secret" mapstructure:"webhook_secret"`
}

type AuditConfig struct {
	DatabasePath string `yaml:"database_path" mapstructure:"database_path"`
}

type APIConfig struct {
	OpenAIKey   string `yaml:"openai_key" mapstructure:"openai_key"`
	OpenAIModel string `yaml:"openai_model" mapstructure:"openai_model"`
}

// Default returns default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		GitHub: GitHubConfig{
			RateLimit: 10,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Audit: AuditConfig{
			DatabasePath: filepath.Join(homeDir, ".riskradar", "audit.db"),
		},
		API: APIConfig{
			OpenAIModel: "gpt-4o-mini",
		},
		Risk: risk.DefaultConfig(),
	}
}

// Load loads configuration from file, environment, and .env files. A missing
// config file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("github", cfg.GitHub)
	v.SetDefault("server", cfg.Server)
	v.SetDefault("audit", cfg.Audit)
	v.SetDefault("api", cfg.API)
	v.SetDefault("risk", cfg.Risk)

	v.SetEnvPrefix("RISKRADAR")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".riskradar")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".riskradar"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine, defaults apply.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence.
func loadEnvFiles() {
	envFiles := []string{
		".env.local",
		".env",
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".riskradar", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		_ = godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies well-known environment variables on top of the
// file configuration. Env vars win: they are how CI and deployments inject
// secrets without touching files.
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if secret := os.Getenv("GITHUB_WEBHOOK_SECRET"); secret != "" {
		cfg.Server.WebhookSecret = secret
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.API.OpenAIKey = key
	}
}
