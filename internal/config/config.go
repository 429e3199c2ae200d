package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8000"
	ShutdownTimeout time.Duration // ex: 5s
	WriteTimeout    time.Duration // max time to write a response, bounds streamed bodies (0 = none)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Proxy core
	AccessToken   string        // shared secret for "Authorization: Bearer"
	MinTTL        time.Duration // lowest accepted registration TTL
	MaxTTL        time.Duration // highest accepted registration TTL
	SweepInterval time.Duration // expiry sweep period (default: MinTTL)
	MaxBodyBytes  int64         // registration body limit

	// Forwarding policy (may be overridden by PolicyFile)
	MaxRedirects          int           // redirect hops followed upstream
	IgnoredHeaders        []string      // upstream headers never relayed
	UpstreamDialTimeout   time.Duration // TCP connect timeout
	UpstreamHeaderTimeout time.Duration // wait for upstream response headers
	PolicyFile            string        // optional YAML overrides

	// Redis (optional usage counters; empty addr disables)
	RedisAddr             string
	RedisUser             string
	RedisPassword         string
	RedisPasswordRequired bool
	RedisDB               int
	RedisDT               time.Duration // dial timeout
	RedisRT               time.Duration // read timeout
	RedisWT               time.Duration // write timeout
	RedisMaxWait          time.Duration // max wait between retries
	RedisPingTimeout      time.Duration // timeout for each ping attempt
	RedisPoolSize         int
	RedisConnectTimeout   time.Duration // total time to retry connecting
	RedisRetryInterval    time.Duration // initial wait between retries
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict proxy routes to specific Host headers
	AllowedCIDRS []string // optional, restrict ops endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func Load() *Config {
	minTTL := mustDuration("RELAY_MIN_TTL", 60*time.Second)

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("RELAY_LISTEN_PORT", ":8000"),
		ShutdownTimeout: mustDuration("RELAY_SHUTDOWN_TIMEOUT", 5*time.Second),
		WriteTimeout:    mustDuration("RELAY_WRITE_TIMEOUT", 5*time.Minute),

		// Logging
		LogLevel:  getenv("RELAY_LOG_LEVEL", "info"),
		PrettyLog: mustBool("RELAY_PRETTY_LOG", false),

		// Proxy core
		AccessToken:   requireEnv("RELAY_ACCESS_TOKEN"),
		MinTTL:        minTTL,
		MaxTTL:        mustDuration("RELAY_MAX_TTL", time.Hour),
		SweepInterval: mustDuration("RELAY_SWEEP_INTERVAL", minTTL),
		MaxBodyBytes:  int64(getenvInt("RELAY_MAX_BODY_BYTES", 4096)),

		// Forwarding
		MaxRedirects:          getenvInt("RELAY_MAX_REDIRECTS", 10),
		IgnoredHeaders:        getenvSlice("RELAY_IGNORED_HEADERS", []string{"Content-Length", "Content-Encoding"}),
		UpstreamDialTimeout:   mustDuration("RELAY_UPSTREAM_DIAL_TIMEOUT", 10*time.Second),
		UpstreamHeaderTimeout: mustDuration("RELAY_UPSTREAM_HEADER_TIMEOUT", 30*time.Second),
		PolicyFile:            getenv("RELAY_POLICY_FILE", ""),

		// Redis settings
		RedisAddr:             getenv("RELAY_REDIS_ADDR", ""),
		RedisUser:             getenv("RELAY_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("RELAY_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("RELAY_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("RELAY_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("RELAY_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("RELAY_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("RELAY_TRUST_PROXY", false),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.MinTTL < time.Second {
		return fmt.Errorf("RELAY_MIN_TTL must be at least 1s, got %v", c.MinTTL)
	}
	if c.MaxTTL < c.MinTTL {
		return fmt.Errorf("RELAY_MAX_TTL (%v) must be >= RELAY_MIN_TTL (%v)", c.MaxTTL, c.MinTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("RELAY_SWEEP_INTERVAL must be > 0, got %v", c.SweepInterval)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("RELAY_MAX_BODY_BYTES must be > 0, got %d", c.MaxBodyBytes)
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("RELAY_MAX_REDIRECTS must be >= 0, got %d", c.MaxRedirects)
	}
	if c.RedisEnabled() && c.RedisPasswordRequired && c.RedisPassword == "" {
		return fmt.Errorf("RELAY_REDIS_PASSWORD is required when RELAY_REDIS_PASSWORD_REQUIRED=true")
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	cp.AccessToken = "***REDACTED***"
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvSlice(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	// Explicitly empty means "relay every header".
	if parts := splitAndTrim(v); parts != nil {
		return parts
	}
	return []string{}
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return parts
}
