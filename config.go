package goGrant

import (
	"errors"
	"time"
)

// Config defines a public type used by goGrant APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Channel    ChannelConfig
	Oracle     OracleConfig
	Passphrase PassphraseConfig
	Security   SecurityConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
CHANNEL CONFIG
====================================
*/

// ChannelConfig defines a public type used by goGrant APIs.
//
// ChannelConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChannelConfig struct {
	// BufferSize is the FIFO request queue depth. Submitters suspend once
	// the queue is full.
	BufferSize int
}

/*
====================================
ORACLE CONFIG
====================================
*/

// OracleConfig defines a public type used by goGrant APIs.
//
// OracleConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// The cost parameters are handed to the reference oracle's passphrase KDF.
// Changing them changes every derived grant, so they are fixed per
// deployment.
type OracleConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	KeyLength   uint32
}

/*
====================================
PASSPHRASE CONFIG
====================================
*/

// PassphraseConfig defines a public type used by goGrant APIs.
//
// PassphraseConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PassphraseConfig struct {
	// EntropyBits is the entropy of generated mnemonics. Must be a
	// multiple of 32 in [128, 256]; the floor keeps brute-force guessing
	// infeasible.
	EntropyBits int
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by goGrant APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	// EnableRequestThrottle turns on the redis fixed-window limiter,
	// keyed by a hash of the API key. Requires a redis client on the
	// builder.
	EnableRequestThrottle bool
	MaxRequestsPerWindow  int
	RequestCooldown       time.Duration
	RedisPrefix           string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by goGrant APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by goGrant APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The returned config passes Validate and leaves every optional subsystem
// (throttle, audit, metrics) off.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Channel: ChannelConfig{
			BufferSize: 64,
		},
		Oracle: OracleConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			KeyLength:   32,
		},
		Passphrase: PassphraseConfig{
			EntropyBits: 128,
		},
		Security: SecurityConfig{
			EnableRequestThrottle: false,
			MaxRequestsPerWindow:  30,
			RequestCooldown:       time.Minute,
			RedisPrefix:           "gg",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a deep copy.
	return cfg
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.Channel.BufferSize < 0 {
		return errors.New("Channel BufferSize must not be negative")
	}

	if c.Passphrase.EntropyBits < 128 || c.Passphrase.EntropyBits > 256 || c.Passphrase.EntropyBits%32 != 0 {
		return errors.New("Passphrase EntropyBits must be a multiple of 32 in [128, 256]")
	}

	if c.Security.EnableRequestThrottle {
		if c.Security.MaxRequestsPerWindow <= 0 {
			return errors.New("Security MaxRequestsPerWindow must be positive when throttling is enabled")
		}
		if c.Security.RequestCooldown <= 0 {
			return errors.New("Security RequestCooldown must be positive when throttling is enabled")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be positive when audit is enabled")
	}

	return nil
}
