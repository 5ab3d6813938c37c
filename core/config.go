package core

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite3"
)

type DeliveryConfig struct {
	MaxAttempts     int   `koanf:"max_attempts" mapstructure:"max_attempts"`
	AttemptDelaysMS []int `koanf:"attempt_delays_ms" mapstructure:"attempt_delays_ms"`
}

// AttemptDelays converts the millisecond schedule into durations.
func (c DeliveryConfig) AttemptDelays() []time.Duration {
	out := make([]time.Duration, 0, len(c.AttemptDelaysMS))
	for _, ms := range c.AttemptDelaysMS {
		out = append(out, time.Duration(ms)*time.Millisecond)
	}
	return out
}

type TransportConfig struct {
	Timeout              time.Duration `koanf:"timeout" mapstructure:"timeout"`
	MaxResponseBodyBytes int64         `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
}

type RegistryConfig struct {
	// EndpointCacheTTL enables the cached endpoint registry when positive.
	EndpointCacheTTL time.Duration `koanf:"endpoint_cache_ttl" mapstructure:"endpoint_cache_ttl"`
}

type StorageConfig struct {
	Driver      string        `koanf:"driver" mapstructure:"driver"`
	DSN         string        `koanf:"dsn" mapstructure:"dsn"`
	Debug       bool          `koanf:"debug" mapstructure:"debug"`
	PingTimeout time.Duration `koanf:"ping_timeout" mapstructure:"ping_timeout"`
}

type Config struct {
	ServiceName string          `koanf:"service_name" mapstructure:"service_name"`
	Delivery    DeliveryConfig  `koanf:"delivery" mapstructure:"delivery"`
	Transport   TransportConfig `koanf:"transport" mapstructure:"transport"`
	Registry    RegistryConfig  `koanf:"registry" mapstructure:"registry"`
	Storage     StorageConfig   `koanf:"storage" mapstructure:"storage"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "webhooks",
		Delivery: DeliveryConfig{
			MaxAttempts:     5,
			AttemptDelaysMS: []int{1000, 3000, 10000, 30000, 60000},
		},
		Transport: TransportConfig{
			Timeout:              30 * time.Second,
			MaxResponseBodyBytes: 10 << 20,
		},
		Storage: StorageConfig{
			Driver:      StorageDriverSQLite,
			PingTimeout: 5 * time.Second,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Delivery.MaxAttempts <= 0 {
		return fmt.Errorf("core: delivery.max_attempts must be > 0")
	}
	if len(c.Delivery.AttemptDelaysMS) == 0 {
		return fmt.Errorf("core: delivery.attempt_delays_ms is required")
	}
	for _, ms := range c.Delivery.AttemptDelaysMS {
		if ms < 0 {
			return fmt.Errorf("core: delivery.attempt_delays_ms must be >= 0")
		}
	}
	if c.Transport.Timeout < 0 {
		return fmt.Errorf("core: transport.timeout must be >= 0")
	}
	if c.Registry.EndpointCacheTTL < 0 {
		return fmt.Errorf("core: registry.endpoint_cache_ttl must be >= 0")
	}
	driver := strings.TrimSpace(strings.ToLower(c.Storage.Driver))
	if driver != "" && !slices.Contains([]string{StorageDriverPostgres, StorageDriverSQLite}, driver) {
		return fmt.Errorf("core: storage.driver %q is invalid", c.Storage.Driver)
	}
	return nil
}

// GetDebug, GetDriver, GetServer, GetPingTimeout and GetOtelIdentifier let the
// storage section act as a go-persistence-bun client config.
func (c StorageConfig) GetDebug() bool { return c.Debug }

func (c StorageConfig) GetDriver() string { return strings.TrimSpace(c.Driver) }

func (c StorageConfig) GetServer() string { return strings.TrimSpace(c.DSN) }

func (c StorageConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c StorageConfig) GetOtelIdentifier() string { return "go-webhook-dispatch" }
