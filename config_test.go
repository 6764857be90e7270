package goGrant

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"negative channel buffer", func(c *Config) { c.Channel.BufferSize = -1 }, false},
		{"zero channel buffer", func(c *Config) { c.Channel.BufferSize = 0 }, true},
		{"entropy too small", func(c *Config) { c.Passphrase.EntropyBits = 96 }, false},
		{"entropy too large", func(c *Config) { c.Passphrase.EntropyBits = 288 }, false},
		{"entropy not multiple of 32", func(c *Config) { c.Passphrase.EntropyBits = 130 }, false},
		{"entropy 256", func(c *Config) { c.Passphrase.EntropyBits = 256 }, true},
		{"throttle without window limit", func(c *Config) {
			c.Security.EnableRequestThrottle = true
			c.Security.MaxRequestsPerWindow = 0
		}, false},
		{"throttle without cooldown", func(c *Config) {
			c.Security.EnableRequestThrottle = true
			c.Security.RequestCooldown = 0
		}, false},
		{"throttle configured", func(c *Config) {
			c.Security.EnableRequestThrottle = true
			c.Security.MaxRequestsPerWindow = 10
			c.Security.RequestCooldown = 30 * time.Second
		}, true},
		{"audit without buffer", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.valid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCloneConfigIsolation(t *testing.T) {
	cfg := defaultConfig()
	clone := cloneConfig(cfg)

	clone.Channel.BufferSize = 7
	clone.Security.RedisPrefix = "other"

	if cfg.Channel.BufferSize == 7 || cfg.Security.RedisPrefix == "other" {
		t.Fatal("mutating the clone must not affect the source")
	}
}
