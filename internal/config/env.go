package config

import (
	"os"
	"strconv"
	"strings"
)

func mergeEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			cfg.Port = n
		}
	}
	setToggleFromEnv("DEBUG", func(b bool) { cfg.Debug = b })
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("CODE_ASSIST_ENDPOINT"); v != "" {
		cfg.CodeAssistEndpoint = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("GOOGLE_BEARER_TOKEN"); v != "" {
		cfg.GoogleBearerToken = v
	}
	if v := os.Getenv("GOOGLE_PROJECT_ID"); v != "" {
		cfg.GoogleProjectID = v
	}
	if v := os.Getenv("PROXY_URL"); v != "" {
		cfg.ProxyURL = v
	}

	setIntFromEnv("RETRY_MAX", func(n int) { cfg.RetryMax = n })
	setFloatFromEnv("RETRY_INTERVAL", func(f float64) { cfg.RetryIntervalSec = f })

	setToggleFromEnv("PSEUDO_STREAMING_ENABLED", func(b bool) { cfg.PseudoStreamEnabled = b })
	setToggleFromEnv("PSEUDO_STREAMING_CONCURRENT", func(b bool) { cfg.PseudoStreamConcurrent = b })
	setFloatFromEnv("PSEUDO_STREAMING_HEARTBEAT_INTERVAL", func(f float64) { cfg.HeartbeatIntervalSec = f })
	setIntFromEnv("PSEUDO_STREAMING_MAX_HEARTBEATS", func(n int) { cfg.MaxHeartbeats = n })
	setToggleFromEnv("NONSTREAM_KEEPALIVE_ENABLED", func(b bool) { cfg.NonStreamKeepAlive = b })
	setFloatFromEnv("NONSTREAM_KEEPALIVE_INTERVAL", func(f float64) { cfg.NonStreamKeepAliveIntSec = f })

	setToggleFromEnv("RATE_LIMIT_ENABLED", func(b bool) { cfg.RateLimitEnabled = b })
	setIntFromEnv("RATE_LIMIT_RPS", func(n int) { cfg.RateLimitRPS = n })
	setIntFromEnv("RATE_LIMIT_BURST", func(n int) { cfg.RateLimitBurst = n })

	setIntFromEnv("DIAL_TIMEOUT_SEC", func(n int) { cfg.DialTimeoutSec = n })
	setIntFromEnv("TLS_HANDSHAKE_TIMEOUT_SEC", func(n int) { cfg.TLSHandshakeTimeoutSec = n })
	setIntFromEnv("RESPONSE_HEADER_TIMEOUT_SEC", func(n int) { cfg.ResponseHeaderTimeoutSec = n })
	setIntFromEnv("EXPECT_CONTINUE_TIMEOUT_SEC", func(n int) { cfg.ExpectContinueTimeoutSec = n })
}

func setIntFromEnv(key string, setter func(int)) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			setter(n)
		}
	}
}

func setFloatFromEnv(key string, setter func(float64)) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			setter(f)
		}
	}
}

func setToggleFromEnv(key string, setter func(bool)) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return
	}
	switch v {
	case "1", "true", "yes", "on":
		setter(true)
	case "0", "false", "no", "off":
		setter(false)
	}
}
