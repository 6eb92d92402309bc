package config

// DefaultCodeAssistEndpoint is the Code Assist API host the relay fronts.
const DefaultCodeAssistEndpoint = "https://cloudcode-pa.googleapis.com"

// Default returns the built-in configuration. Pseudo-streaming and the
// non-streaming keepalive wrapper are off by default; both heartbeat
// intervals default to 5 seconds.
func Default() *Config {
	return &Config{
		Port:               8317,
		CodeAssistEndpoint: DefaultCodeAssistEndpoint,

		RetryMax:         3,
		RetryIntervalSec: 1,

		PseudoStreamEnabled:      false,
		PseudoStreamConcurrent:   true,
		HeartbeatIntervalSec:     5.0,
		MaxHeartbeats:            60,
		NonStreamKeepAlive:       false,
		NonStreamKeepAliveIntSec: 5.0,

		RateLimitRPS:   10,
		RateLimitBurst: 20,
	}
}
