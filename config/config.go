// Package config loads service configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment names. Production statically excludes the verification bypass.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the full configuration of the owning process.
type Config struct {
	ListenAddr string `yaml:"listenAddr"`
	Env        string `yaml:"env"`

	// RecipientAddress is the wallet that receives content payments.
	RecipientAddress string `yaml:"recipientAddress"`
	// PriceFIL is the unit price applied to newly ingested content.
	PriceFIL string `yaml:"priceFIL"`

	SessionTTL time.Duration `yaml:"sessionTTL"`

	// InsecureSkipVerify accepts every payment proof without an explorer
	// lookup. Refused when Env is production.
	InsecureSkipVerify bool `yaml:"insecureSkipVerify"`

	Pinning    PinningConfig    `yaml:"pinning"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Explorer   ExplorerConfig   `yaml:"explorer"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
}

// PinningConfig configures the content-pinning collaborator.
type PinningConfig struct {
	BaseURL    string        `yaml:"baseURL"`
	GatewayURL string        `yaml:"gatewayURL"`
	APIKey     string        `yaml:"apiKey"`
	Timeout    time.Duration `yaml:"timeout"`
}

// SummarizerConfig configures the naming/summarization collaborator.
type SummarizerConfig struct {
	BaseURL string        `yaml:"baseURL"`
	APIKey  string        `yaml:"apiKey"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// ExplorerConfig configures the transaction-lookup collaborator.
type ExplorerConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// RateLimitConfig bounds payment-session issuance per client IP.
type RateLimitConfig struct {
	SessionRPS   float64 `yaml:"sessionRPS"`
	SessionBurst int     `yaml:"sessionBurst"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		ListenAddr: ":3000",
		Env:        EnvDevelopment,
		PriceFIL:   "0.001",
		SessionTTL: 15 * time.Minute,
		Pinning: PinningConfig{
			BaseURL:    "https://node.lighthouse.storage",
			GatewayURL: "https://gateway.lighthouse.storage",
			Timeout:    30 * time.Second,
		},
		Summarizer: SummarizerConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Model:   "gemini-1.5-flash",
			Timeout: 30 * time.Second,
		},
		Explorer: ExplorerConfig{
			BaseURL: "https://filfox.info/api/v1",
			Timeout: 15 * time.Second,
		},
		RateLimit: RateLimitConfig{
			SessionRPS:   2,
			SessionBurst: 10,
		},
	}
}

// Load reads path (when non-empty and present), applies PAGETOLL_* env
// overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.ListenAddr, "PAGETOLL_LISTEN_ADDR")
	setString(&c.Env, "PAGETOLL_ENV")
	setString(&c.RecipientAddress, "PAGETOLL_RECIPIENT")
	setString(&c.PriceFIL, "PAGETOLL_PRICE_FIL")
	setDuration(&c.SessionTTL, "PAGETOLL_SESSION_TTL")
	setBool(&c.InsecureSkipVerify, "PAGETOLL_INSECURE_SKIP_VERIFY")

	setString(&c.Pinning.BaseURL, "PAGETOLL_PINNING_URL")
	setString(&c.Pinning.GatewayURL, "PAGETOLL_PINNING_GATEWAY_URL")
	setString(&c.Pinning.APIKey, "PAGETOLL_PINNING_API_KEY")
	setString(&c.Summarizer.BaseURL, "PAGETOLL_SUMMARIZER_URL")
	setString(&c.Summarizer.APIKey, "PAGETOLL_SUMMARIZER_API_KEY")
	setString(&c.Summarizer.Model, "PAGETOLL_SUMMARIZER_MODEL")
	setString(&c.Explorer.BaseURL, "PAGETOLL_EXPLORER_URL")
	setFloat(&c.RateLimit.SessionRPS, "PAGETOLL_SESSION_RPS")
	setInt(&c.RateLimit.SessionBurst, "PAGETOLL_SESSION_BURST")
}

// Validate rejects configurations that must never reach a running process.
func (c Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("unknown env %q (want %s or %s)", c.Env, EnvDevelopment, EnvProduction)
	}
	if c.Env == EnvProduction && c.InsecureSkipVerify {
		return fmt.Errorf("insecureSkipVerify must not be set when env is %s", EnvProduction)
	}
	if c.RecipientAddress == "" {
		return fmt.Errorf("recipientAddress is required")
	}
	if c.PriceFIL == "" {
		return fmt.Errorf("priceFIL is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("sessionTTL must be positive")
	}
	return nil
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if raw := envString(key); raw != "" {
		*dst = raw
	}
}

func setBool(dst *bool, key string) {
	switch strings.ToLower(envString(key)) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	}
}

func setInt(dst *int, key string) {
	if raw := envString(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			*dst = parsed
		}
	}
}

func setFloat(dst *float64, key string) {
	if raw := envString(key); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if raw := envString(key); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			*dst = parsed
		}
	}
}
