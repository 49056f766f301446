package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
		Mode string `yaml:"mode"` // gin mode: debug, release, test
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	AI struct {
		GatewayURL string `yaml:"gateway_url"`
		APIKey     string `yaml:"api_key"`
		Model      string `yaml:"model"`
	} `yaml:"ai"`
	MarketData struct {
		Provider      string        `yaml:"provider"` // yahoo or alpaca
		AlpacaKey     string        `yaml:"alpaca_key"`
		AlpacaSecret  string        `yaml:"alpaca_secret"`
		RateLimit     float64       `yaml:"rate_limit"` // requests per second
		RateBurst     int           `yaml:"rate_burst"`
		CacheTTL      time.Duration `yaml:"cache_ttl"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
	} `yaml:"market_data"`
	Polling struct {
		PeriodSeconds int `yaml:"period_seconds"`
	} `yaml:"polling"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Email struct {
		ResendAPIKey string `yaml:"resend_api_key"`
		From         string `yaml:"from"`
	} `yaml:"email"`
	Sessions struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"sessions"`
	Database struct {
		Driver      string `yaml:"driver"` // sqlite, postgres or none
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresURL string `yaml:"postgres_url"`
		MaxConns    int32  `yaml:"max_conns"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides and fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the process environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "HTTP_ADDR")
	setString(&c.Server.Mode, "GIN_MODE")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.AI.GatewayURL, "AI_GATEWAY_URL")
	setString(&c.AI.APIKey, "LOVABLE_API_KEY")
	setString(&c.AI.Model, "AI_MODEL")
	setString(&c.MarketData.Provider, "MARKET_DATA_PROVIDER")
	setString(&c.MarketData.AlpacaKey, "APCA_API_KEY_ID")
	setString(&c.MarketData.AlpacaSecret, "APCA_API_SECRET_KEY")
	setString(&c.MarketData.RedisAddr, "REDIS_ADDR")
	setString(&c.MarketData.RedisPassword, "REDIS_PASSWORD")
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.Email.ResendAPIKey, "RESEND_API_KEY")
	setString(&c.Email.From, "EMAIL_FROM")
	setString(&c.Sessions.StateFile, "SESSION_STATE_FILE")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Database.PostgresURL, "DATABASE_URL")
	setString(&c.Proxy, "HTTPS_PROXY")

	if v := os.Getenv("POLL_PERIOD_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Polling.PeriodSeconds = n
		}
	}
	if v := os.Getenv("MARKET_DATA_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MarketData.CacheTTL = d
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.MarketData.Provider == "" {
		c.MarketData.Provider = "yahoo"
	}
	if c.MarketData.RateLimit == 0 {
		c.MarketData.RateLimit = 2
	}
	if c.MarketData.RateBurst == 0 {
		c.MarketData.RateBurst = 5
	}
	if c.MarketData.CacheTTL == 0 {
		c.MarketData.CacheTTL = 15 * time.Second
	}
	if c.Polling.PeriodSeconds == 0 {
		c.Polling.PeriodSeconds = 20
	}
	if c.Sessions.StateFile == "" {
		c.Sessions.StateFile = "data/sessions.json"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
		if c.Database.PostgresURL != "" {
			c.Database.Driver = "postgres"
		}
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/trade_helper.db"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 5
	}
}

// Validate checks that the configured combination is usable.
func (c *Config) Validate() error {
	switch c.MarketData.Provider {
	case "yahoo":
	case "alpaca":
		if c.MarketData.AlpacaKey == "" || c.MarketData.AlpacaSecret == "" {
			return fmt.Errorf("market_data.alpaca_key and alpaca_secret are required for the alpaca provider")
		}
	default:
		return fmt.Errorf("market_data.provider must be yahoo or alpaca, got %q", c.MarketData.Provider)
	}
	switch c.Database.Driver {
	case "sqlite", "none":
	case "postgres":
		if c.Database.PostgresURL == "" {
			return fmt.Errorf("database.postgres_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or none, got %q", c.Database.Driver)
	}
	if c.Polling.PeriodSeconds < 1 {
		return fmt.Errorf("polling.period_seconds must be positive")
	}
	if c.MarketData.RateLimit <= 0 {
		return fmt.Errorf("market_data.rate_limit must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
