package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the relay process. Values are
// resolved in order: built-in defaults, then the yaml file (if present),
// then environment variables.
type Config struct {
	// Server settings
	Port    int    `yaml:"port" json:"port"`
	Debug   bool   `yaml:"debug" json:"debug"`
	LogFile string `yaml:"log_file" json:"log_file"`

	// Upstream settings
	CodeAssistEndpoint string `yaml:"code_assist_endpoint" json:"code_assist_endpoint"`
	GoogleBearerToken  string `yaml:"google_bearer_token" json:"google_bearer_token"`
	GoogleProjectID    string `yaml:"google_project_id" json:"google_project_id"`
	ProxyURL           string `yaml:"proxy_url" json:"proxy_url"`

	// Transport timeouts (seconds; 0 means package default)
	DialTimeoutSec           int `yaml:"dial_timeout_sec" json:"dial_timeout_sec"`
	TLSHandshakeTimeoutSec   int `yaml:"tls_handshake_timeout_sec" json:"tls_handshake_timeout_sec"`
	ResponseHeaderTimeoutSec int `yaml:"response_header_timeout_sec" json:"response_header_timeout_sec"`
	ExpectContinueTimeoutSec int `yaml:"expect_continue_timeout_sec" json:"expect_continue_timeout_sec"`

	// Retry policy for the upstream transport. RetryMax counts total
	// attempts, not re-attempts. The delay is fixed, not exponential.
	RetryMax         int     `yaml:"retry_max" json:"retry_max"`
	RetryIntervalSec float64 `yaml:"retry_interval_sec" json:"retry_interval_sec"`

	// Pseudo-streaming: simulate incremental delivery over the one-shot
	// upstream endpoint.
	PseudoStreamEnabled      bool    `yaml:"pseudo_streaming_enabled" json:"pseudo_streaming_enabled"`
	PseudoStreamConcurrent   bool    `yaml:"pseudo_streaming_concurrent" json:"pseudo_streaming_concurrent"`
	HeartbeatIntervalSec     float64 `yaml:"pseudo_streaming_heartbeat_interval" json:"pseudo_streaming_heartbeat_interval"`
	MaxHeartbeats            int     `yaml:"pseudo_streaming_max_heartbeats" json:"pseudo_streaming_max_heartbeats"`
	NonStreamKeepAlive       bool    `yaml:"nonstream_keepalive_enabled" json:"nonstream_keepalive_enabled"`
	NonStreamKeepAliveIntSec float64 `yaml:"nonstream_keepalive_interval" json:"nonstream_keepalive_interval"`

	// Rate limiting on the inbound surface
	RateLimitEnabled bool `yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RateLimitRPS     int  `yaml:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst   int  `yaml:"rate_limit_burst" json:"rate_limit_burst"`
}

// HeartbeatInterval returns the heartbeat spacing as a duration.
func (c *Config) HeartbeatInterval() time.Duration {
	return secondsToDuration(c.HeartbeatIntervalSec, 5*time.Second)
}

// KeepAliveInterval returns the non-streaming keepalive spacing.
func (c *Config) KeepAliveInterval() time.Duration {
	return secondsToDuration(c.NonStreamKeepAliveIntSec, 5*time.Second)
}

// RetryInterval returns the fixed inter-attempt delay for the transport.
func (c *Config) RetryInterval() time.Duration {
	return secondsToDuration(c.RetryIntervalSec, time.Second)
}

func secondsToDuration(seconds float64, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds * float64(time.Second))
}

var (
	mu      sync.RWMutex
	current *Config
)

// Load builds a Config from defaults and environment only.
func Load() *Config {
	cfg := Default()
	mergeEnv(cfg)
	setCurrent(cfg)
	return cfg
}

// LoadWithFile builds a Config from defaults, the yaml file at path (missing
// file is not an error) and environment overrides.
func LoadWithFile(path string) *Config {
	cfg := Default()
	if path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil
		}
	}
	mergeEnv(cfg)
	setCurrent(cfg)
	return cfg
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Current returns the most recently loaded configuration, or defaults when
// nothing was loaded yet.
func Current() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return Default()
	}
	return current
}

func setCurrent(cfg *Config) {
	mu.Lock()
	current = cfg
	mu.Unlock()
}
