package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"bronlock/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Booking    BookingConfig    `yaml:"booking"`
	Payment    PaymentConfig    `yaml:"payment"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BookingConfig struct {
	DefaultTTLMillis int64 `yaml:"default_ttl_millis"`
	MinTTLMillis     int64 `yaml:"min_ttl_millis"`
	MaxTTLMillis     int64 `yaml:"max_ttl_millis"`
	StoreOpTimeoutMs int64 `yaml:"store_op_timeout_millis"`
}

// StoreOpTimeout returns the per-call bound on lease store operations.
func (b BookingConfig) StoreOpTimeout() time.Duration {
	return time.Duration(b.StoreOpTimeoutMs) * time.Millisecond
}

type PaymentConfig struct {
	Mode          string `yaml:"mode"` // gateway, static
	GatewayURL    string `yaml:"gateway_url"`
	APIKey        string `yaml:"api_key"`
	TimeoutMillis int64  `yaml:"timeout_millis"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Booking.MinTTLMillis > c.Booking.MaxTTLMillis {
		return errors.New("booking min ttl must not exceed max ttl")
	}
	if c.Booking.DefaultTTLMillis < c.Booking.MinTTLMillis ||
		c.Booking.DefaultTTLMillis > c.Booking.MaxTTLMillis {
		return errors.New("booking default ttl must be within [min, max]")
	}

	if c.Payment.Mode == "gateway" && c.Payment.GatewayURL == "" {
		return errors.New("payment gateway url is required in gateway mode")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if !c.API.Auth.Enabled && c.API.Enabled {
		c.API.Auth.Enabled = true
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}

	// Booking defaults
	if c.Booking.DefaultTTLMillis == 0 {
		c.Booking.DefaultTTLMillis = models.DefaultLeaseTTLMillis
	}
	if c.Booking.MinTTLMillis == 0 {
		c.Booking.MinTTLMillis = models.MinLeaseTTLMillis
	}
	if c.Booking.MaxTTLMillis == 0 {
		c.Booking.MaxTTLMillis = models.MaxLeaseTTLMillis
	}
	if c.Booking.StoreOpTimeoutMs == 0 {
		c.Booking.StoreOpTimeoutMs = 800
	}

	if c.Payment.Mode == "" {
		c.Payment.Mode = "static"
	}
	if c.Payment.TimeoutMillis == 0 {
		c.Payment.TimeoutMillis = 900
	}

	if c.Catalog.Path == "" {
		c.Catalog.Path = "configs/providers.yaml"
	}
}
