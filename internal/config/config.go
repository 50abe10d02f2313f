package config

import (
	"errors"
	"fmt"
	"os"

	"slotbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig          `yaml:"app"`
	Database      DatabaseConfig     `yaml:"database"`
	Redis         RedisConfig        `yaml:"redis"`
	Backup        BackupConfig       `yaml:"backup"`
	Monitoring    MonitoringConfig   `yaml:"monitoring"`
	Logging       LoggingConfig      `yaml:"logging"`
	API           APIConfig          `yaml:"api"`
	Booking       BookingConfig      `yaml:"booking"`
	Notifications NotificationConfig `yaml:"notifications"`
	Exports       ExportConfig       `yaml:"exports"`
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
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool `yaml:"enabled"`
	Port       int  `yaml:"port"`
	Reflection bool `yaml:"reflection"`
}

type APIAuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

// APIRateLimitConfig covers both limiters: RPS/Burst is the per-tenant token bucket for
// authenticated routes, PublicRequests/PublicWindow the fixed window for public routes.
type APIRateLimitConfig struct {
	RPS            float64 `yaml:"rps"`
	Burst          int     `yaml:"burst"`
	PublicRequests int     `yaml:"public_requests"`
	PublicWindow   int     `yaml:"public_window"`
}

type BookingConfig struct {
	SlotDuration            int `yaml:"slot_duration"`
	MaxRecurringOccurrences int `yaml:"max_recurring_occurrences"`
	MaxExportDays           int `yaml:"max_export_days"`
}

type NotificationConfig struct {
	Enabled       bool   `yaml:"enabled"`
	MaxRetries    int    `yaml:"max_retries"`
	InitialDelay  string `yaml:"initial_delay"`
	MaxDelay      string `yaml:"max_delay"`
	QueueKey      string `yaml:"queue_key"`
	DeadLetterKey string `yaml:"dead_letter_key"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

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

	if c.API.Auth.JWTSecret == "" || c.API.Auth.JWTSecret == "CHANGE_ME" {
		return errors.New("api.auth.jwt_secret is required")
	}

	if c.Booking.SlotDuration < 5 || c.Booking.SlotDuration > 24*60 {
		return fmt.Errorf("booking.slot_duration must be between 5 and 1440 minutes, got %d", c.Booking.SlotDuration)
	}

	if c.Booking.MaxRecurringOccurrences < 1 {
		return fmt.Errorf("booking.max_recurring_occurrences must be positive, got %d", c.Booking.MaxRecurringOccurrences)
	}

	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		return errors.New("backup.storage_path is required when backup is enabled")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "slotbook"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.Issuer == "" {
		c.API.Auth.Issuer = c.App.Name
	}
	if c.API.RateLimit.PublicRequests == 0 {
		c.API.RateLimit.PublicRequests = models.DefaultRateLimitRequests
	}
	if c.API.RateLimit.PublicWindow == 0 {
		c.API.RateLimit.PublicWindow = models.DefaultRateLimitWindow
	}

	if c.Booking.SlotDuration == 0 {
		c.Booking.SlotDuration = models.DefaultSlotDuration
	}
	if c.Booking.MaxRecurringOccurrences == 0 {
		c.Booking.MaxRecurringOccurrences = models.DefaultMaxRecurringOccurrences
	}
	if c.Booking.MaxExportDays == 0 {
		c.Booking.MaxExportDays = models.DefaultMaxExportDays
	}

	if c.Notifications.MaxRetries == 0 {
		c.Notifications.MaxRetries = 5
	}
	if c.Notifications.QueueKey == "" {
		c.Notifications.QueueKey = "notifications:queue"
	}
	if c.Notifications.DeadLetterKey == "" {
		c.Notifications.DeadLetterKey = "notifications:deadletter"
	}

	if c.Backup.RetentionDays == 0 {
		c.Backup.RetentionDays = 7
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
