// Package config provides configuration management for the grid-picks backend.
package config

// Config represents the complete application configuration
type Config struct {
	App            AppConfig            `mapstructure:"app" validate:"required"`
	Database       DatabaseConfig       `mapstructure:"database" validate:"required"`
	OpenF1         OpenF1Config         `mapstructure:"openf1" validate:"required"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation" validate:"required"`
	Metrics        MetricsConfig        `mapstructure:"metrics" validate:"required"`
	Health         HealthConfig         `mapstructure:"health" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// OpenF1Config represents the external results source configuration
type OpenF1Config struct {
	BaseURL                string  `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds         int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries             int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit              float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	MeetingCacheTTLMinutes int     `mapstructure:"meeting_cache_ttl_minutes" validate:"required,gt=0"`
}

// ReconciliationConfig represents the scheduled reconciliation job configuration
type ReconciliationConfig struct {
	IntervalSeconds     int `mapstructure:"interval_seconds" validate:"required,gt=0"`
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds" validate:"required,gt=0"`
}

// MetricsConfig represents Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port" validate:"required"`
}

// HealthConfig represents the health check server configuration
type HealthConfig struct {
	Port string `mapstructure:"port" validate:"required"`
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true when running in the development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
