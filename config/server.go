package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// KafkaProducerConfig defines configuration for the audit event producer
type KafkaProducerConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// Batch processing settings
	BatchSize    int      `yaml:"batch_size"`
	BatchTimeout Duration `yaml:"batch_timeout"`
	BatchBytes   int      `yaml:"batch_bytes"`

	// Reliability settings
	RequiredAcks string `yaml:"required_acks"`
	Async        bool   `yaml:"async"`

	// Performance settings
	WriteTimeout Duration `yaml:"write_timeout"`
	ReadTimeout  Duration `yaml:"read_timeout"`
}

// HttpServerConfig defines HTTP server configuration
type HttpServerConfig struct {
	ReadTimeout    Duration `yaml:"read_timeout"`
	WriteTimeout   Duration `yaml:"write_timeout"`
	IdleTimeout    Duration `yaml:"idle_timeout"`
	RequestTimeout Duration `yaml:"request_timeout"`
	MaxHeaderBytes int      `yaml:"max_header_bytes"`
}

// AnalyticsConfig bounds the analytics summary response
type AnalyticsConfig struct {
	TrendMonths      int `yaml:"trend_months"`      // Calendar-month buckets in the trend
	TopManufacturers int `yaml:"top_manufacturers"` // Entries in the manufacturer ranking
	RecentDays       int `yaml:"recent_days"`       // Lookback window for recent verifications
	RecentLimit      int `yaml:"recent_limit"`      // Entries in the recent verifications list
}

// SetDefaults sets reasonable default values for analytics configuration
func (c *AnalyticsConfig) SetDefaults() {
	if c.TrendMonths <= 0 {
		c.TrendMonths = 6
	}
	if c.TopManufacturers <= 0 {
		c.TopManufacturers = 10
	}
	if c.RecentDays <= 0 {
		c.RecentDays = 30
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = 10
	}
}

// RegistrationConfig tunes the persist-after-mint retry policy
type RegistrationConfig struct {
	PersistMaxAttempts int      `yaml:"persist_max_attempts"`
	PersistRetryMin    Duration `yaml:"persist_retry_min"`
	PersistRetryMax    Duration `yaml:"persist_retry_max"`
}

// SetDefaults sets reasonable default values for registration configuration
func (c *RegistrationConfig) SetDefaults() {
	if c.PersistMaxAttempts <= 0 {
		c.PersistMaxAttempts = 5
		fmt.Printf("Warning: registration.persist_max_attempts not set, defaulting to %d\n", c.PersistMaxAttempts)
	}
	if c.PersistRetryMin == 0 {
		c.PersistRetryMin = Duration(100 * time.Millisecond)
	}
	if c.PersistRetryMax == 0 {
		c.PersistRetryMax = Duration(2 * time.Second)
	}
}

// ServerConfig defines all configurations required for the registry server
type ServerConfig struct {
	HttpListenAddr string `yaml:"http_listen_addr"`

	// DevelopmentMode exposes internal error detail in responses
	DevelopmentMode bool `yaml:"development_mode"`

	Database      DatabaseConfig      `yaml:"database"`       // Use unified DatabaseConfig
	KafkaProducer KafkaProducerConfig `yaml:"kafka_producer"` // Audit feed producer config
	HttpServer    HttpServerConfig    `yaml:"http_server"`
	Analytics     AnalyticsConfig     `yaml:"analytics"`
	Registration  RegistrationConfig  `yaml:"registration"`
}

// LoadServerConfig loads registry server configuration from the specified YAML file path
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read server config file '%s': %w", path, err)
	}

	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server YAML config file: %w", err)
	}

	// Set defaults for database configuration
	cfg.Database.SetDefaults()
	cfg.Analytics.SetDefaults()
	cfg.Registration.SetDefaults()

	// Validation
	if cfg.HttpListenAddr == "" {
		return nil, fmt.Errorf("configuration error: http_listen_addr must be configured")
	}

	// Validate database configuration
	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("database configuration error: %w", err)
	}

	return &cfg, nil
}
