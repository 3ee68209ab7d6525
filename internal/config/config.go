// File: internal/config/config.go
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

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MetricsPath    string        `yaml:"metrics_path"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"` // empty -> in-memory store
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty -> in-process locks, no rate limiting
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type BotConfig struct {
	Token       string  `yaml:"token"` // empty -> bot disabled
	Workers     int     `yaml:"workers"`
	StaffIDs    []int64 `yaml:"staff_ids"`
	StaffChatID int64   `yaml:"staff_chat_id"` // check-in notices go here when set
}

type ScanConfig struct {
	FrameInterval  time.Duration `yaml:"frame_interval"`
	CaptureTimeout time.Duration `yaml:"capture_timeout"`
	MaxSessions    int           `yaml:"max_sessions"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
}

type RedeemConfig struct {
	RateLimit  int           `yaml:"rate_limit"` // requests per window per client; 0 disables
	RateWindow time.Duration `yaml:"rate_window"`
}

type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url"` // empty -> check-in events are not published
	Exchange string `yaml:"exchange"`
}

type I18nConfig struct {
	Lang string `yaml:"lang"`
}

type SeedConfig struct {
	Demo bool `yaml:"demo"` // seed PART001..PART005 on startup
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Bot      BotConfig      `yaml:"bot"`
	Scan     ScanConfig     `yaml:"scan"`
	Redeem   RedeemConfig   `yaml:"redeem"`
	Events   EventsConfig   `yaml:"events"`
	I18n     I18nConfig     `yaml:"i18n"`
	Seed     SeedConfig     `yaml:"seed"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads .env (if any), the YAML file at path, then applies
// environment overrides and defaults. A missing YAML file is not an error:
// the service can run from environment variables alone.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env never overrides variables already present in the environment.
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.Events.AMQPURL = v
	}
	if v := os.Getenv("CHECKIN_LANG"); v != "" {
		cfg.I18n.Lang = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 10 * time.Second
	}
	if cfg.Server.MetricsPath == "" {
		cfg.Server.MetricsPath = "/metrics"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.LockTTL <= 0 {
		cfg.Redis.LockTTL = 5 * time.Second
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 4
	}
	if cfg.Scan.FrameInterval <= 0 {
		cfg.Scan.FrameInterval = 100 * time.Millisecond
	}
	if cfg.Scan.CaptureTimeout <= 0 {
		cfg.Scan.CaptureTimeout = 30 * time.Second
	}
	if cfg.Scan.MaxSessions <= 0 {
		cfg.Scan.MaxSessions = 32
	}
	if cfg.Scan.SessionTTL <= 0 {
		cfg.Scan.SessionTTL = 10 * time.Minute
	}
	if cfg.Redeem.RateWindow <= 0 {
		cfg.Redeem.RateWindow = time.Minute
	}
	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "checkin"
	}
	if cfg.I18n.Lang == "" {
		cfg.I18n.Lang = "es"
	}
}

// Validate performs minimal sanity checks after defaults are applied.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Redeem.RateLimit < 0 {
		return errors.New("redeem.rate_limit must be >= 0")
	}
	switch c.I18n.Lang {
	case "es", "en":
	default:
		return fmt.Errorf("i18n.lang %q not supported", c.I18n.Lang)
	}
	return nil
}
