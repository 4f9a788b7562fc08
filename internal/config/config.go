package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Port                  string `yaml:"port"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

type Gate struct {
	Secret        string `yaml:"secret"` // overridable via GATE_SECRET
	MinIntervalMs int    `yaml:"min_interval_ms"`
}

type Cache struct {
	TTLMs                int `yaml:"ttl_ms"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

type Upstream struct {
	Simulation                bool   `yaml:"simulation"`
	BaseURL                   string `yaml:"base_url"`
	APIKey                    string `yaml:"api_key"`    // overridable via UPSTREAM_API_KEY
	SecretKey                 string `yaml:"secret_key"` // overridable via UPSTREAM_SECRET_KEY
	TimeoutSeconds            int    `yaml:"timeout_seconds"`
	RateLimitPerMinute        int    `yaml:"rate_limit_per_minute"`
	MaxRetries                int    `yaml:"max_retries"`
	BackoffBaseMs             int    `yaml:"backoff_base_ms"`
	LoginMaxRetries           int    `yaml:"login_max_retries"`
	LoginRetryIntervalSeconds int    `yaml:"login_retry_interval_seconds"`
	KeepaliveIntervalSeconds  int    `yaml:"keepalive_interval_seconds"`
	ReloginHour               int    `yaml:"relogin_hour"`
	MarketTimezone            string `yaml:"market_timezone"`
	PrefetchContracts         bool   `yaml:"prefetch_contracts"`
}

type Root struct {
	Server   Server   `yaml:"server"`
	Gate     Gate     `yaml:"gate"`
	Cache    Cache    `yaml:"cache"`
	Upstream Upstream `yaml:"upstream"`
}

// Load reads the YAML config at path. An empty path yields defaults plus env
// overrides, so the gateway can run from environment alone.
func Load(path string) (Root, error) {
	var c Root
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, err
		}
	}

	// Secrets come from the environment when set
	if v := os.Getenv("GATE_SECRET"); v != "" {
		c.Gate.Secret = v
	}
	if v := os.Getenv("UPSTREAM_API_KEY"); v != "" {
		c.Upstream.APIKey = v
	}
	if v := os.Getenv("UPSTREAM_SECRET_KEY"); v != "" {
		c.Upstream.SecretKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}

	// Server defaults
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.RequestTimeoutSeconds == 0 {
		c.Server.RequestTimeoutSeconds = 15
	}

	// Gate defaults
	if c.Gate.MinIntervalMs == 0 {
		c.Gate.MinIntervalMs = 1000
	}

	// Cache defaults
	if c.Cache.TTLMs == 0 {
		c.Cache.TTLMs = 2000
	}
	if c.Cache.SweepIntervalSeconds == 0 {
		c.Cache.SweepIntervalSeconds = 60
	}

	// Upstream defaults
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "http://localhost:9090"
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 10
	}
	if c.Upstream.RateLimitPerMinute == 0 {
		c.Upstream.RateLimitPerMinute = 60
	}
	if c.Upstream.MaxRetries == 0 {
		c.Upstream.MaxRetries = 3
	}
	if c.Upstream.BackoffBaseMs == 0 {
		c.Upstream.BackoffBaseMs = 500
	}
	if c.Upstream.LoginMaxRetries == 0 {
		c.Upstream.LoginMaxRetries = 3
	}
	if c.Upstream.LoginRetryIntervalSeconds == 0 {
		c.Upstream.LoginRetryIntervalSeconds = 5
	}
	if c.Upstream.KeepaliveIntervalSeconds == 0 {
		c.Upstream.KeepaliveIntervalSeconds = 30
	}
	if c.Upstream.ReloginHour == 0 {
		c.Upstream.ReloginHour = 5
	}
	if c.Upstream.MarketTimezone == "" {
		c.Upstream.MarketTimezone = "Asia/Taipei"
	}

	return c, nil
}
