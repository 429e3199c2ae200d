package config

import (
	"os"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestGetenvSlice(t *testing.T) {
	def := []string{"Content-Length", "Content-Encoding"}

	t.Run("unset uses default", func(t *testing.T) {
		got := getenvSlice("TEST_SLICE_UNSET", def)
		if len(got) != 2 {
			t.Errorf("getenvSlice() = %v, want default", got)
		}
	})

	t.Run("values are trimmed", func(t *testing.T) {
		t.Setenv("TEST_SLICE", " Set-Cookie , 'Server' ")
		got := getenvSlice("TEST_SLICE", def)
		if len(got) != 2 || got[0] != "Set-Cookie" || got[1] != "Server" {
			t.Errorf("getenvSlice() = %v", got)
		}
	})

	t.Run("explicit empty clears the list", func(t *testing.T) {
		t.Setenv("TEST_SLICE_EMPTY", "")
		got := getenvSlice("TEST_SLICE_EMPTY", def)
		if got == nil || len(got) != 0 {
			t.Errorf("getenvSlice() = %#v, want empty non-nil slice", got)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Setenv("RELAY_ACCESS_TOKEN", "s3cret")
	t.Setenv("RELAY_MIN_TTL", "30s")
	t.Setenv("RELAY_MAX_REDIRECTS", "4")
	t.Setenv("RELAY_ALLOWED_CIDRS", "10.0.0.0/8, 127.0.0.1")

	cfg := Load()

	if cfg.AccessToken != "s3cret" {
		t.Errorf("AccessToken = %q", cfg.AccessToken)
	}
	if cfg.MinTTL != 30*time.Second {
		t.Errorf("MinTTL = %v, want 30s", cfg.MinTTL)
	}
	if cfg.MaxTTL != time.Hour {
		t.Errorf("MaxTTL = %v, want 1h", cfg.MaxTTL)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Errorf("SweepInterval = %v, want MinTTL", cfg.SweepInterval)
	}
	if cfg.MaxRedirects != 4 {
		t.Errorf("MaxRedirects = %d, want 4", cfg.MaxRedirects)
	}
	if cfg.MaxBodyBytes != 4096 {
		t.Errorf("MaxBodyBytes = %d, want 4096", cfg.MaxBodyBytes)
	}
	if len(cfg.AllowedCIDRS) != 2 {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
	if cfg.RedisEnabled() {
		t.Error("Redis should be disabled without RELAY_REDIS_ADDR")
	}
}

func TestLoadPanicsWithoutAccessToken(t *testing.T) {
	t.Setenv("RELAY_ACCESS_TOKEN", "")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked without RELAY_ACCESS_TOKEN")
		}
	}()
	Load()
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			MinTTL:        time.Minute,
			MaxTTL:        time.Hour,
			SweepInterval: time.Minute,
			MaxBodyBytes:  4096,
			MaxRedirects:  10,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"min above max", func(c *Config) { c.MinTTL = 2 * time.Hour }, true},
		{"sub-second min", func(c *Config) { c.MinTTL = 0 }, true},
		{"zero sweep", func(c *Config) { c.SweepInterval = 0 }, true},
		{"zero body", func(c *Config) { c.MaxBodyBytes = 0 }, true},
		{"negative redirects", func(c *Config) { c.MaxRedirects = -1 }, true},
		{"redis password required", func(c *Config) {
			c.RedisAddr = "localhost:6379"
			c.RedisPasswordRequired = true
		}, true},
		{"redis password required but redis off", func(c *Config) { c.RedisPasswordRequired = true }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	c := &Config{AccessToken: "s3cret", RedisPassword: "pw", RedisUser: "default"}
	r := c.Redacted()

	if r.AccessToken == "s3cret" || r.RedisPassword == "pw" || r.RedisUser == "default" {
		t.Errorf("Redacted() leaked secrets: %+v", r)
	}
	if c.AccessToken != "s3cret" {
		t.Error("Redacted() must not modify the original")
	}
}
