// Package config loads the service configuration from API_* environment
// variables.
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/time/rate"

	"github.com/handwerksprojekt/api/internal/cors"
)

// Prefix of every environment variable read by Load.
const Prefix = "API"

// Config holds the runtime settings of the API.
type Config struct {
	Addr  string `envconfig:"ADDR" default:":8000" desc:"HTTP listen address"`
	Title string `envconfig:"TITLE" default:"Handwerksprojekt API" desc:"human-readable application title"`

	CORSOrigins       []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://localhost:5174" desc:"exact origins allowed to read responses"`
	CORSCredentials   bool     `envconfig:"CORS_CREDENTIALS" default:"true" desc:"allow cookies and auth headers on cross-origin requests"`
	CORSMethods       []string `envconfig:"CORS_METHODS" default:"*" desc:"allowed methods, * for all"`
	CORSHeaders       []string `envconfig:"CORS_HEADERS" default:"*" desc:"allowed request headers, * for all"`
	CORSExposeHeaders []string `envconfig:"CORS_EXPOSE_HEADERS" desc:"response headers exposed to scripts"`
	CORSMaxAge        int      `envconfig:"CORS_MAX_AGE" default:"600" desc:"preflight cache lifetime in seconds"`

	DatabaseURL    string `envconfig:"DATABASE_URL" desc:"PostgreSQL DSN checked by /health/ready, empty disables the check"`
	OperatorSecret string `envconfig:"OPERATOR_SECRET" desc:"HS256 secret (32+ bytes) for /health/details, empty disables the endpoint"`

	HealthRate   float64       `envconfig:"HEALTH_RATE" default:"20" desc:"sustained health requests per second, 0 disables limiting"`
	HealthBurst  int           `envconfig:"HEALTH_BURST" default:"40" desc:"health request burst"`
	CheckTimeout time.Duration `envconfig:"CHECK_TIMEOUT" default:"2s" desc:"timeout of a single dependency check"`

	Gzip        bool `envconfig:"GZIP" default:"true" desc:"gzip responses"`
	GzipMinSize int  `envconfig:"GZIP_MIN_SIZE" default:"1024" desc:"smallest response body to compress"`
	VerboseLog  bool `envconfig:"VERBOSE_LOG" default:"false" desc:"log request headers (credentials redacted)"`

	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Usage writes the list of recognised variables to w.
func Usage(w io.Writer) error {
	return envconfig.Usagef(Prefix, &Config{}, w, envconfig.DefaultTableFormat)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%s_ADDR must not be empty", Prefix)
	}
	if err := c.CORSPolicy().Validate(); err != nil {
		return err
	}
	if c.OperatorSecret != "" && len(c.OperatorSecret) < 32 {
		return fmt.Errorf("%s_OPERATOR_SECRET must be at least 32 bytes", Prefix)
	}
	if c.HealthRate < 0 || c.HealthBurst < 0 {
		return fmt.Errorf("%s_HEALTH_RATE and %s_HEALTH_BURST must not be negative", Prefix, Prefix)
	}
	return nil
}

// CORSPolicy returns the CORS policy described by c.
func (c *Config) CORSPolicy() cors.Policy {
	return cors.Policy{
		AllowedOrigins:   c.CORSOrigins,
		AllowCredentials: c.CORSCredentials,
		AllowMethods:     c.CORSMethods,
		AllowHeaders:     c.CORSHeaders,
		ExposeHeaders:    c.CORSExposeHeaders,
		MaxAge:           c.CORSMaxAge,
	}
}

// HealthLimiter returns the limiter for the health group, nil when disabled.
func (c *Config) HealthLimiter() *rate.Limiter {
	if c.HealthRate == 0 {
		return nil
	}
	burst := c.HealthBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.HealthRate), burst)
}
