package config

import (
	"fmt"
	"strings"
	"time"
)

// Environment variables backing the CLI flags.
const (
	SignozBaseURL   = "SIGNOZ_BASE_URL"
	SignozURL       = "SIGNOZ_URL"
	SignozApiKey    = "SIGNOZ_API_KEY"
	LogLevelEnv     = "LOG_LEVEL"
	TransportEnv    = "MCP_TRANSPORT"
	PortEnv         = "MCP_PORT"
	TimeoutEnv      = "SIGNOZ_TIMEOUT"
	RateLimitEnv    = "SIGNOZ_RATE_LIMIT"
	CacheSizeEnv    = "SIGNOZ_CLIENT_CACHE_SIZE"
	OTLPEndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	DefaultPort            = "8000"
	DefaultLogLevel        = "info"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultClientCacheSize = 64
)

type Config struct {
	URL             string
	APIKey          string
	LogLevel        string
	Transport       string
	Port            string
	RequestTimeout  time.Duration
	RateLimit       float64
	ClientCacheSize int
	OTLPEndpoint    string
}

// Validate fills in defaults and rejects unusable settings. In http mode the
// API key may be empty because every request brings its own.
func (c *Config) Validate() error {
	c.URL = strings.TrimSpace(c.URL)
	if c.URL == "" {
		return fmt.Errorf("SigNoz URL not set: use --url or `%s`", SignozBaseURL)
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	c.Transport = strings.ToLower(c.Transport)
	switch c.Transport {
	case TransportStdio:
		if c.APIKey == "" {
			return fmt.Errorf("SigNoz API key not set: use --api-key or `%s`", SignozApiKey)
		}
	case TransportHTTP:
	default:
		return fmt.Errorf("invalid transport %q: must be %s or %s", c.Transport, TransportStdio, TransportHTTP)
	}

	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit %v: must not be negative", c.RateLimit)
	}
	if c.ClientCacheSize <= 0 {
		c.ClientCacheSize = DefaultClientCacheSize
	}
	return nil
}
