package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Reminder      ReminderConfig      `yaml:"reminder"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL           string `yaml:"url"`
	DurablePrefix string `yaml:"durable_prefix"`
}

// ReminderConfig tunes the due-reminder dispatcher.
type ReminderConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	ClaimTTL     time.Duration `yaml:"claim_ttl"`
	BatchSize    int           `yaml:"batch_size"`
	PublishRate  float64       `yaml:"publish_rate"` // messages per second
	PublishBurst int           `yaml:"publish_burst"`
	MaxWorkers   int           `yaml:"max_workers"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	ServiceName    string `yaml:"service_name"`

	// Tracing is disabled while OTLPEndpoint is empty.
	OTLPEndpoint    string  `yaml:"otlp_endpoint"`
	OTLPTransport   string  `yaml:"otlp_transport"` // grpc only
	OTLPInsecure    bool    `yaml:"otlp_insecure"`
	TraceSampleRate float64 `yaml:"trace_sample_rate"`
}

const (
	DefaultPollInterval  = 30 * time.Second
	DefaultClaimTTL      = 2 * time.Minute
	DefaultBatchSize     = 100
	DefaultPublishRate   = 20.0
	DefaultPublishBurst  = 5
	DefaultMaxWorkers    = 4
	DefaultServiceName   = "kamisato"
	DefaultDurablePrefix = "kamisato"
	DefaultOTLPTransport = "grpc"
	DefaultSampleRate    = 1.0
)

// LoadConfig loads the configuration from a YAML file, then applies
// environment overrides. A missing file falls back to environment only.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	cfg.NATS.URL = os.Getenv("NATS_URL")
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL environment variable not set")
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_DURABLE_PREFIX"); v != "" {
		cfg.NATS.DurablePrefix = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("SERVICE_NAME"); v != "" {
		cfg.Observability.ServiceName = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		cfg.Observability.OTLPEndpoint = v
	}
	if v := os.Getenv("OTLP_TRANSPORT"); v != "" {
		cfg.Observability.OTLPTransport = v
	}
	if v := os.Getenv("OTLP_INSECURE"); v != "" {
		cfg.Observability.OTLPInsecure = v == "true"
	}
	if v := os.Getenv("TRACE_SAMPLE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid TRACE_SAMPLE_RATE value: %w", err)
		}
		cfg.Observability.TraceSampleRate = f
	}
	if v := os.Getenv("REMINDER_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REMINDER_POLL_INTERVAL value: %w", err)
		}
		cfg.Reminder.PollInterval = d
	}
	if v := os.Getenv("REMINDER_CLAIM_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REMINDER_CLAIM_TTL value: %w", err)
		}
		cfg.Reminder.ClaimTTL = d
	}
	if v := os.Getenv("REMINDER_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REMINDER_BATCH_SIZE value: %w", err)
		}
		cfg.Reminder.BatchSize = n
	}
	if v := os.Getenv("REMINDER_PUBLISH_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid REMINDER_PUBLISH_RATE value: %w", err)
		}
		cfg.Reminder.PublishRate = f
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Reminder.PollInterval == 0 {
		c.Reminder.PollInterval = DefaultPollInterval
	}
	if c.Reminder.ClaimTTL == 0 {
		c.Reminder.ClaimTTL = DefaultClaimTTL
	}
	if c.Reminder.BatchSize == 0 {
		c.Reminder.BatchSize = DefaultBatchSize
	}
	if c.Reminder.PublishRate == 0 {
		c.Reminder.PublishRate = DefaultPublishRate
	}
	if c.Reminder.PublishBurst == 0 {
		c.Reminder.PublishBurst = DefaultPublishBurst
	}
	if c.Reminder.MaxWorkers == 0 {
		c.Reminder.MaxWorkers = DefaultMaxWorkers
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = DefaultServiceName
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Observability.OTLPTransport == "" {
		c.Observability.OTLPTransport = DefaultOTLPTransport
	}
	if c.Observability.TraceSampleRate == 0 {
		c.Observability.TraceSampleRate = DefaultSampleRate
	}
	if c.NATS.DurablePrefix == "" {
		c.NATS.DurablePrefix = DefaultDurablePrefix
	}
}

// Validate rejects settings the dispatcher cannot run with.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres dsn is required")
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("nats url is required")
	}
	if c.Reminder.PollInterval < time.Second || c.Reminder.PollInterval > time.Minute {
		return fmt.Errorf("reminder poll_interval must be between 1s and 60s, got %s", c.Reminder.PollInterval)
	}
	if c.Reminder.ClaimTTL <= 0 {
		return fmt.Errorf("reminder claim_ttl must be positive")
	}
	if c.Reminder.BatchSize < 1 {
		return fmt.Errorf("reminder batch_size must be positive")
	}
	if c.Reminder.PublishRate <= 0 || c.Reminder.PublishBurst < 1 {
		return fmt.Errorf("reminder publish_rate and publish_burst must be positive")
	}
	if c.Observability.OTLPTransport != DefaultOTLPTransport {
		return fmt.Errorf("observability otlp_transport %q is not supported", c.Observability.OTLPTransport)
	}
	if c.Observability.TraceSampleRate < 0 || c.Observability.TraceSampleRate > 1 {
		return fmt.Errorf("observability trace_sample_rate must be between 0 and 1")
	}
	return nil
}
