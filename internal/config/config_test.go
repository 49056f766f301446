package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.MarketData.Provider != "yahoo" || cfg.Polling.PeriodSeconds != 20 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Database.Driver != "sqlite" || cfg.MarketData.CacheTTL != 15*time.Second {
		t.Errorf("unexpected database/cache defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
market_data:
  provider: alpaca
  alpaca_key: key
  alpaca_secret: secret
  cache_ttl: 30s
polling:
  period_seconds: 10
database:
  postgres_url: postgres://u:p@db/app
`)
	t.Setenv("LOVABLE_API_KEY", "gw-key")
	t.Setenv("POLL_PERIOD_SECONDS", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("expected addr from file, got %q", cfg.Server.Addr)
	}
	if cfg.AI.APIKey != "gw-key" {
		t.Errorf("expected api key from env, got %q", cfg.AI.APIKey)
	}
	if cfg.Polling.PeriodSeconds != 5 {
		t.Errorf("expected env to override file, got %d", cfg.Polling.PeriodSeconds)
	}
	if cfg.MarketData.CacheTTL != 30*time.Second {
		t.Errorf("expected cache ttl 30s, got %v", cfg.MarketData.CacheTTL)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("expected postgres driver inferred from url, got %q", cfg.Database.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [unterminated")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.MarketData.Provider = "bloomberg" }},
		{"alpaca without keys", func(c *Config) { c.MarketData.Provider = "alpaca" }},
		{"postgres without url", func(c *Config) { c.Database.Driver = "postgres" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"zero period", func(c *Config) { c.Polling.PeriodSeconds = -1 }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "t" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
