package core

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate: %v", err)
	}
	delays := cfg.Delivery.AttemptDelays()
	if len(delays) != 5 || delays[0] != time.Second || delays[4] != time.Minute {
		t.Fatalf("unexpected delay schedule: %v", delays)
	}
}

func TestConfigValidate_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"service name", func(c *Config) { c.ServiceName = " " }, "service_name"},
		{"max attempts", func(c *Config) { c.Delivery.MaxAttempts = 0 }, "max_attempts"},
		{"empty delays", func(c *Config) { c.Delivery.AttemptDelaysMS = nil }, "attempt_delays_ms"},
		{"negative delay", func(c *Config) { c.Delivery.AttemptDelaysMS = []int{100, -1} }, "attempt_delays_ms"},
		{"negative timeout", func(c *Config) { c.Transport.Timeout = -time.Second }, "transport.timeout"},
		{"negative cache ttl", func(c *Config) { c.Registry.EndpointCacheTTL = -time.Second }, "endpoint_cache_ttl"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }, "storage.driver"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestStorageConfig_PersistenceGetters(t *testing.T) {
	cfg := StorageConfig{Driver: " postgres ", DSN: " postgres://localhost/webhooks ", Debug: true}
	if cfg.GetDriver() != StorageDriverPostgres {
		t.Fatalf("unexpected driver %q", cfg.GetDriver())
	}
	if cfg.GetServer() != "postgres://localhost/webhooks" {
		t.Fatalf("unexpected server %q", cfg.GetServer())
	}
	if !cfg.GetDebug() {
		t.Fatalf("expected debug to be enabled")
	}
	if cfg.GetPingTimeout() != 5*time.Second {
		t.Fatalf("expected default ping timeout, got %v", cfg.GetPingTimeout())
	}
	cfg.PingTimeout = time.Second
	if cfg.GetPingTimeout() != time.Second {
		t.Fatalf("expected explicit ping timeout, got %v", cfg.GetPingTimeout())
	}
}
