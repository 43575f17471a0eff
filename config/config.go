package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log      Logger         `mapstructure:"logger"`
	Backend  Backend        `mapstructure:"backend"`
	API      API            `mapstructure:"api"`
	Cache    Cache          `mapstructure:"cache"`
	Session  Session        `mapstructure:"session"`
	DB       Database       `mapstructure:"database"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type Logger struct {
	Level      string `mapstructure:"level"`
	Encoding   string `mapstructure:"encoding"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Backend is the external analysis service every session talks to.
type Backend struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
}

type API struct {
	Port                int `mapstructure:"port"`
	MaxRequestPerSecond int `mapstructure:"max_request_per_second"`
	Burst               int `mapstructure:"burst"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	FundamentalsTTL   time.Duration `mapstructure:"fundamentals_ttl"`
}

type Session struct {
	ChartPoints     int           `mapstructure:"chart_points"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	JanitorSchedule string        `mapstructure:"janitor_schedule"`
}

type Database struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type TelegramConfig struct {
	Enabled                   bool          `mapstructure:"enabled"`
	BotToken                  string        `mapstructure:"bot_token"`
	WebhookURL                string        `mapstructure:"webhook_url"`
	TimeoutDuration           time.Duration `mapstructure:"timeout_duration"`
	MaxGlobalRequestPerSecond int           `mapstructure:"max_global_request_per_second"`
	MaxUserRequestPerSecond   int           `mapstructure:"max_user_request_per_second"`
	MaxShowHistoryAnalysis    int           `mapstructure:"max_show_history_analysis"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 14)

	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("backend.max_request_per_minute", 120)

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.max_request_per_second", 10)
	v.SetDefault("api.burst", 30)

	v.SetDefault("cache.default_expiration", 10*time.Minute)
	v.SetDefault("cache.cleanup_interval", 15*time.Minute)
	v.SetDefault("cache.fundamentals_ttl", 15*time.Minute)

	v.SetDefault("session.chart_points", 60)
	v.SetDefault("session.request_timeout", 45*time.Second)
	v.SetDefault("session.idle_timeout", 30*time.Minute)
	v.SetDefault("session.janitor_schedule", "@every 5m")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.timeout_duration", 2*time.Minute)
	v.SetDefault("telegram.max_global_request_per_second", 30)
	v.SetDefault("telegram.max_user_request_per_second", 1)
	v.SetDefault("telegram.max_show_history_analysis", 5)
}

// Load reads .env, config.yaml from the working directory and the environment.
// Environment keys use "_" in place of "." (BACKEND_BASE_URL overrides backend.base_url).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file loaded:", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url must not be empty")
	}
	if c.Backend.MaxRequestPerMinute <= 0 {
		return fmt.Errorf("backend.max_request_per_minute must be positive, got %d", c.Backend.MaxRequestPerMinute)
	}
	if c.Session.ChartPoints <= 0 {
		return fmt.Errorf("session.chart_points must be positive, got %d", c.Session.ChartPoints)
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	return nil
}
