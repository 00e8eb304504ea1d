package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Shopify  ShopifyConfig  `yaml:"shopify"`
	Queue    QueueConfig    `yaml:"queue"`
	Sync     SyncConfig     `yaml:"sync"`
	Gaps     GapsConfig     `yaml:"gaps"`
	HTTP     HTTPConfig     `yaml:"http"`
	LogLevel string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig enables the cross-process bulk submit lock. An empty Addr
// disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

// RabbitMQConfig enables event publishing. An empty URL disables it.
type RabbitMQConfig struct {
	URL       string `yaml:"url"`
	Exchange  string `yaml:"exchange"`
	QueueName string `yaml:"queue_name"`
}

type ShopifyConfig struct {
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
	RateLimit  float64       `yaml:"rate_limit"`
	RateBurst  int           `yaml:"rate_burst"`
	Retry      RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// QueueConfig tunes the job runner. HeartbeatInterval zero means a third of
// StaleAfter.
type QueueConfig struct {
	PollInterval      time.Duration  `yaml:"poll_interval"`
	MaxAttempts       int            `yaml:"max_attempts"`
	InitialBackoff    time.Duration  `yaml:"initial_backoff"`
	MaxBackoff        time.Duration  `yaml:"max_backoff"`
	StaleAfter        time.Duration  `yaml:"stale_after"`
	HeartbeatInterval time.Duration  `yaml:"heartbeat_interval"`
	Concurrency       map[string]int `yaml:"concurrency"`
}

type SyncConfig struct {
	PollInterval  time.Duration `yaml:"poll_interval"`
	ConflictDelay time.Duration `yaml:"conflict_delay"`
	StuckAfter    time.Duration `yaml:"stuck_after"`
	SinceDate     string        `yaml:"since_date"`
	BatchSize     int           `yaml:"batch_size"`
}

// Since parses SinceDate, the lower bound for full-history exports.
func (s SyncConfig) Since() (time.Time, error) {
	t, err := time.Parse("2006-01-02", s.SinceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse since_date: %w", err)
	}
	return t, nil
}

type GapsConfig struct {
	LookbackDays     int           `yaml:"lookback_days"`
	DeepLookbackDays int           `yaml:"deep_lookback_days"`
	ScanInterval     time.Duration `yaml:"scan_interval"`
	Platform         string        `yaml:"platform"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if _, err := cfg.Sync.Since(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Redis.LockTTL == 0 {
		c.Redis.LockTTL = 2 * time.Minute
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "commerce_sync"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "commerce_sync_events"
	}
	if c.Shopify.APIVersion == "" {
		c.Shopify.APIVersion = "2024-10"
	}
	if c.Shopify.Timeout == 0 {
		c.Shopify.Timeout = 30 * time.Second
	}
	if c.Shopify.RateLimit == 0 {
		c.Shopify.RateLimit = 2
	}
	if c.Shopify.RateBurst == 0 {
		c.Shopify.RateBurst = 4
	}
	if c.Shopify.Retry.MaxAttempts == 0 {
		c.Shopify.Retry.MaxAttempts = 3
	}
	if c.Shopify.Retry.InitialBackoff == 0 {
		c.Shopify.Retry.InitialBackoff = 1 * time.Second
	}
	if c.Shopify.Retry.MaxBackoff == 0 {
		c.Shopify.Retry.MaxBackoff = 30 * time.Second
	}
	if c.Queue.PollInterval == 0 {
		c.Queue.PollInterval = 1 * time.Second
	}
	if c.Queue.MaxAttempts == 0 {
		c.Queue.MaxAttempts = 3
	}
	if c.Queue.InitialBackoff == 0 {
		c.Queue.InitialBackoff = 5 * time.Second
	}
	if c.Queue.MaxBackoff == 0 {
		c.Queue.MaxBackoff = 5 * time.Minute
	}
	if c.Queue.StaleAfter == 0 {
		c.Queue.StaleAfter = 15 * time.Minute
	}
	if c.Queue.Concurrency == nil {
		c.Queue.Concurrency = map[string]int{}
	}
	if _, ok := c.Queue.Concurrency["recent-sync"]; !ok {
		c.Queue.Concurrency["recent-sync"] = 5
	}
	if _, ok := c.Queue.Concurrency["bulk-sync"]; !ok {
		c.Queue.Concurrency["bulk-sync"] = 1
	}
	if _, ok := c.Queue.Concurrency["poll-bulk"]; !ok {
		c.Queue.Concurrency["poll-bulk"] = 4
	}
	if c.Sync.PollInterval == 0 {
		c.Sync.PollInterval = 30 * time.Second
	}
	if c.Sync.ConflictDelay == 0 {
		c.Sync.ConflictDelay = 60 * time.Second
	}
	if c.Sync.StuckAfter == 0 {
		c.Sync.StuckAfter = 6 * time.Hour
	}
	if c.Sync.SinceDate == "" {
		c.Sync.SinceDate = "2000-01-01"
	}
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = 100
	}
	if c.Gaps.LookbackDays == 0 {
		c.Gaps.LookbackDays = 30
	}
	if c.Gaps.DeepLookbackDays == 0 {
		c.Gaps.DeepLookbackDays = 365
	}
	if c.Gaps.Platform == "" {
		c.Gaps.Platform = "shopify"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
