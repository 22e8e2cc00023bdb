// Package config handles loading and validation of application configuration
// from environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/folio-site/folio-backend/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Environment represents the application's running environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// StoreDriver selects the FeedbackRepository implementation.
type StoreDriver string

const (
	DriverSupabase StoreDriver = "supabase"
	DriverPostgres StoreDriver = "postgres"
	DriverMemory   StoreDriver = "memory"
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Environment            Environment `mapstructure:"ENVIRONMENT" yaml:"environment"`
	Port                   string      `mapstructure:"PORT" yaml:"port"`
	AllowedOrigins         []string    `mapstructure:"ALLOWED_ORIGINS" yaml:"allowed_origins"`
	Version                string      `mapstructure:"VERSION" yaml:"version"`
	ShutdownTimeoutSeconds int         `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS" yaml:"shutdown_timeout_seconds"`
}

// StoreConfig selects and tunes the feedback store.
type StoreConfig struct {
	Driver         StoreDriver `mapstructure:"DRIVER" yaml:"driver"`
	Table          string      `mapstructure:"TABLE" yaml:"table"`
	TimeoutSeconds int         `mapstructure:"TIMEOUT_SECONDS" yaml:"timeout_seconds"`
}

// SupabaseConfig holds the hosted store project URL and API key.
type SupabaseConfig struct {
	URL string `mapstructure:"URL" yaml:"url"`
	Key string `mapstructure:"KEY" yaml:"key"`
}

// DatabaseConfig holds PostgreSQL connection details for the postgres driver.
type DatabaseConfig struct {
	Host           string `mapstructure:"HOST" yaml:"host"`
	Port           int    `mapstructure:"PORT" yaml:"port"`
	User           string `mapstructure:"USER" yaml:"user"`
	Password       string `mapstructure:"PASSWORD" yaml:"password"`
	Name           string `mapstructure:"NAME" yaml:"name"`
	SSLMode        string `mapstructure:"SSL_MODE" yaml:"ssl_mode"`
	MaxConnections int    `mapstructure:"MAX_CONNECTIONS" yaml:"max_connections"`
	AutoMigrate    bool   `mapstructure:"AUTO_MIGRATE" yaml:"auto_migrate"`
}

// URL returns a postgres:// connection URL suitable for pgxpool and golang-migrate.
func (c *DatabaseConfig) URL() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		sslmode,
	)
}

// RedisConfig holds Redis connection details. An empty Address disables Redis
// and the live feed falls back to in-process fan-out.
type RedisConfig struct {
	Address  string `mapstructure:"ADDRESS" yaml:"address"`
	Password string `mapstructure:"PASSWORD" yaml:"password"`
	DB       int    `mapstructure:"DB" yaml:"db"`
	UseTLS   bool   `mapstructure:"USE_TLS" yaml:"use_tls"`
	Channel  string `mapstructure:"CHANNEL" yaml:"channel"`
}

// Enabled reports whether a Redis address was configured.
func (c *RedisConfig) Enabled() bool {
	return c.Address != ""
}

// NotificationConfig controls the owner email sent for each new submission.
type NotificationConfig struct {
	Enabled      bool   `mapstructure:"ENABLED" yaml:"enabled"`
	ResendAPIKey string `mapstructure:"RESEND_API_KEY" yaml:"resend_api_key"`
	FromAddress  string `mapstructure:"FROM_ADDRESS" yaml:"from_address"`
	FromName     string `mapstructure:"FROM_NAME" yaml:"from_name"`
	OwnerAddress string `mapstructure:"OWNER_ADDRESS" yaml:"owner_address"`
}

// WorkerPoolConfig holds configuration for the background job pool.
type WorkerPoolConfig struct {
	MaxWorkers             int `mapstructure:"MAX_WORKERS" yaml:"max_workers"`
	QueueSize              int `mapstructure:"QUEUE_SIZE" yaml:"queue_size"`
	ShutdownTimeoutSeconds int `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS" yaml:"shutdown_timeout_seconds"`
}

// StreamConfig tunes the websocket live feed.
type StreamConfig struct {
	EventBufferSize     int `mapstructure:"EVENT_BUFFER_SIZE" yaml:"event_buffer_size"`
	PingIntervalSeconds int `mapstructure:"PING_INTERVAL_SECONDS" yaml:"ping_interval_seconds"`
}

// Config aggregates all application configuration sections.
type Config struct {
	Server       ServerConfig       `mapstructure:"SERVER" yaml:"server"`
	Store        StoreConfig        `mapstructure:"STORE" yaml:"store"`
	Supabase     SupabaseConfig     `mapstructure:"SUPABASE" yaml:"supabase"`
	Database     DatabaseConfig     `mapstructure:"DATABASE" yaml:"database"`
	Redis        RedisConfig        `mapstructure:"REDIS" yaml:"redis"`
	Notification NotificationConfig `mapstructure:"NOTIFICATION" yaml:"notification"`
	WorkerPool   WorkerPoolConfig   `mapstructure:"WORKER_POOL" yaml:"worker_pool"`
	Stream       StreamConfig       `mapstructure:"STREAM" yaml:"stream"`
}

// IsDevelopment returns true if the application is running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// IsProduction returns true if the application is running in production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// bindEnvVars binds multiple environment variables to config keys.
// Format: []{configKey, envVar}
func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables using Viper,
// applies defaults, unmarshals it and validates the result.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER.VERSION", "dev")
	v.SetDefault("SERVER.SHUTDOWN_TIMEOUT_SECONDS", 15)
	v.SetDefault("STORE.DRIVER", DriverSupabase)
	v.SetDefault("STORE.TABLE", "feedback")
	v.SetDefault("STORE.TIMEOUT_SECONDS", 10)
	v.SetDefault("SUPABASE.URL", "")
	v.SetDefault("SUPABASE.KEY", "")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "")
	v.SetDefault("DATABASE.NAME", "folio_dev")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.MAX_CONNECTIONS", 5)
	v.SetDefault("DATABASE.AUTO_MIGRATE", true)
	v.SetDefault("REDIS.ADDRESS", "")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("REDIS.USE_TLS", false)
	v.SetDefault("REDIS.CHANNEL", "folio:feedback")
	v.SetDefault("NOTIFICATION.ENABLED", false)
	v.SetDefault("NOTIFICATION.RESEND_API_KEY", "")
	v.SetDefault("NOTIFICATION.FROM_ADDRESS", "")
	v.SetDefault("NOTIFICATION.FROM_NAME", "Portfolio Aquarium")
	v.SetDefault("NOTIFICATION.OWNER_ADDRESS", "")
	v.SetDefault("WORKER_POOL.MAX_WORKERS", 2)
	v.SetDefault("WORKER_POOL.QUEUE_SIZE", 100)
	v.SetDefault("WORKER_POOL.SHUTDOWN_TIMEOUT_SECONDS", 10)
	v.SetDefault("STREAM.EVENT_BUFFER_SIZE", 32)
	v.SetDefault("STREAM.PING_INTERVAL_SECONDS", 30)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envBindings := [][2]string{
		// Server config
		{"SERVER.ENVIRONMENT", "SERVER_ENVIRONMENT"},
		{"SERVER.PORT", "PORT"},
		{"SERVER.ALLOWED_ORIGINS", "ALLOWED_ORIGINS"},
		{"SERVER.VERSION", "VERSION"},
		{"SERVER.SHUTDOWN_TIMEOUT_SECONDS", "SHUTDOWN_TIMEOUT_SECONDS"},
		// Store selection
		{"STORE.DRIVER", "STORE_DRIVER"},
		{"STORE.TABLE", "FEEDBACK_TABLE"},
		{"STORE.TIMEOUT_SECONDS", "STORE_TIMEOUT_SECONDS"},
		// Supabase
		{"SUPABASE.URL", "SUPABASE_URL"},
		{"SUPABASE.KEY", "SUPABASE_KEY"},
		// Database config
		{"DATABASE.HOST", "DB_HOST"},
		{"DATABASE.PORT", "DB_PORT"},
		{"DATABASE.USER", "DB_USER"},
		{"DATABASE.PASSWORD", "DB_PASSWORD"},
		{"DATABASE.NAME", "DB_NAME"},
		{"DATABASE.SSL_MODE", "DB_SSL_MODE"},
		{"DATABASE.MAX_CONNECTIONS", "DB_MAX_CONNECTIONS"},
		{"DATABASE.AUTO_MIGRATE", "DB_AUTO_MIGRATE"},
		// Redis config
		{"REDIS.ADDRESS", "REDIS_ADDRESS"},
		{"REDIS.PASSWORD", "REDIS_PASSWORD"},
		{"REDIS.DB", "REDIS_DB"},
		{"REDIS.USE_TLS", "REDIS_USE_TLS"},
		{"REDIS.CHANNEL", "REDIS_CHANNEL"},
		// Notification config
		{"NOTIFICATION.ENABLED", "NOTIFY_ENABLED"},
		{"NOTIFICATION.RESEND_API_KEY", "RESEND_API_KEY"},
		{"NOTIFICATION.FROM_ADDRESS", "EMAIL_FROM_ADDRESS"},
		{"NOTIFICATION.FROM_NAME", "EMAIL_FROM_NAME"},
		{"NOTIFICATION.OWNER_ADDRESS", "OWNER_EMAIL"},
		// WorkerPool config
		{"WORKER_POOL.MAX_WORKERS", "WORKER_POOL_MAX_WORKERS"},
		{"WORKER_POOL.QUEUE_SIZE", "WORKER_POOL_QUEUE_SIZE"},
		{"WORKER_POOL.SHUTDOWN_TIMEOUT_SECONDS", "WORKER_POOL_SHUTDOWN_TIMEOUT_SECONDS"},
		// Stream config
		{"STREAM.EVENT_BUFFER_SIZE", "STREAM_EVENT_BUFFER_SIZE"},
		{"STREAM.PING_INTERVAL_SECONDS", "STREAM_PING_INTERVAL_SECONDS"},
	}

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	log.Infow("Configuration loaded",
		"environment", v.GetString("SERVER.ENVIRONMENT"),
		"server_port", v.GetString("SERVER.PORT"),
		"store_driver", v.GetString("STORE.DRIVER"),
		"allowed_origins", v.GetString("SERVER.ALLOWED_ORIGINS"),
		"redis_enabled", v.GetString("REDIS.ADDRESS") != "",
	)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Info("Configuration validated successfully")
	return &cfg, nil
}

// validateConfig checks if the loaded configuration values are valid.
func validateConfig(cfg *Config) error {
	log := logger.GetLogger()

	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.Server.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive")
	}
	if !containsWildcard(cfg.Server.AllowedOrigins) {
		for _, origin := range cfg.Server.AllowedOrigins {
			if _, err := url.ParseRequestURI(origin); err != nil {
				return fmt.Errorf("invalid allowed origin '%s': %w", origin, err)
			}
		}
	}

	if err := validateStoreConfig(cfg); err != nil {
		return err
	}

	if cfg.Redis.Enabled() && cfg.Redis.Channel == "" {
		return fmt.Errorf("redis channel is required when redis is enabled")
	}

	validateNotificationConfig(&cfg.Notification, log)

	if cfg.WorkerPool.MaxWorkers <= 0 {
		return fmt.Errorf("worker pool max workers must be positive")
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		return fmt.Errorf("worker pool queue size must be positive")
	}
	if cfg.WorkerPool.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("worker pool shutdown timeout must be positive")
	}

	if cfg.Stream.EventBufferSize <= 0 {
		return fmt.Errorf("stream event buffer size must be positive")
	}
	if cfg.Stream.PingIntervalSeconds <= 0 {
		return fmt.Errorf("stream ping interval must be positive")
	}

	return nil
}

// validateStoreConfig checks the settings required by the selected driver.
func validateStoreConfig(cfg *Config) error {
	if cfg.Store.Table == "" {
		return fmt.Errorf("feedback table name is required")
	}
	if cfg.Store.TimeoutSeconds <= 0 {
		return fmt.Errorf("store timeout must be positive")
	}

	switch cfg.Store.Driver {
	case DriverSupabase:
		if cfg.Supabase.URL == "" {
			return fmt.Errorf("supabase URL is required")
		}
		if _, err := url.ParseRequestURI(cfg.Supabase.URL); err != nil {
			return fmt.Errorf("invalid supabase URL: %w", err)
		}
		if cfg.Supabase.Key == "" {
			return fmt.Errorf("supabase key is required")
		}
	case DriverPostgres:
		if cfg.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if cfg.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if cfg.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
		if cfg.Database.MaxConnections <= 0 {
			return fmt.Errorf("database max connections must be positive")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q (want supabase, postgres or memory)", cfg.Store.Driver)
	}
	return nil
}

// validateNotificationConfig auto-disables owner notifications when they are
// enabled without the settings needed to send them.
func validateNotificationConfig(cfg *NotificationConfig, log *zap.SugaredLogger) {
	if !cfg.Enabled {
		return
	}

	if cfg.ResendAPIKey == "" || cfg.FromAddress == "" || cfg.OwnerAddress == "" {
		log.Warn("Notification settings incomplete, auto-disabling owner notifications")
		cfg.Enabled = false
	}
}

// containsWildcard checks if the list of allowed origins contains the wildcard "*".
func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
