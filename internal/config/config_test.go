package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func validConfig() *Config {
	return &Config{
		LogLevel:       "info",
		OutputFormat:   "json",
		RateLimitRPS:   10,
		RateLimitBurst: 20,
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.MaxUploadSize != "10M" {
		t.Errorf("expected default upload size 10M, got %s", cfg.MaxUploadSize)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("expected default output format json, got %s", cfg.OutputFormat)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"http://localhost:3000"}) {
		t.Errorf("expected default CORS origin, got %v", cfg.CORSOrigins)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("expected default request timeout 30s, got %s", cfg.RequestTimeout)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected default shutdown timeout 10s, got %s", cfg.ShutdownTimeout)
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Errorf("expected default rate limit 10/20, got %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("OUTPUT_FORMAT", " YAML ")
	os.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	os.Setenv("REQUEST_TIMEOUT", "5s")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("OUTPUT_FORMAT")
		os.Unsetenv("CORS_ORIGINS")
		os.Unsetenv("REQUEST_TIMEOUT")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.OutputFormat != "yaml" {
		t.Errorf("expected normalized output format yaml, got %q", cfg.OutputFormat)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("expected CORS origins %v, got %v", want, cfg.CORSOrigins)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("expected request timeout 5s, got %s", cfg.RequestTimeout)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_Level(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		c := &Config{LogLevel: tt.in}
		if got := c.Level(); got != tt.want {
			t.Errorf("Level(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"yaml output", func(c *Config) { c.OutputFormat = "yaml" }, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"bad output format", func(c *Config) { c.OutputFormat = "xml" }, "OUTPUT_FORMAT"},
		{"zero burst", func(c *Config) { c.RateLimitBurst = 0 }, "RATE_LIMIT_BURST"},
		{"rate limit disabled", func(c *Config) { c.RateLimitRPS = 0; c.RateLimitBurst = 0 }, ""},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, "REQUEST_TIMEOUT"},
		{"tls without cert", func(c *Config) { c.TLSEnabled = true; c.TLSKeyFile = "key.pem" }, "TLS_CERT_FILE"},
		{"tls without key", func(c *Config) { c.TLSEnabled = true; c.TLSCertFile = "cert.pem" }, "TLS_KEY_FILE"},
		{"tls complete", func(c *Config) {
			c.TLSEnabled = true
			c.TLSCertFile = "cert.pem"
			c.TLSKeyFile = "key.pem"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}
