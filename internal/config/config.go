package config

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration read from EMS_* environment variables.
type Config struct {
	Env      string `envconfig:"ENV" default:"development"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr string `envconfig:"GRPC_ADDR" default:":9090"`

	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string        `envconfig:"JWT_ISSUER" default:"ems-api"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"1h"`

	DefaultRole string `envconfig:"DEFAULT_ROLE" default:"Employee"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	LoginRateBurst  int     `envconfig:"LOGIN_RATE_BURST" default:"10"`
	LoginRatePerSec float64 `envconfig:"LOGIN_RATE_PER_SEC" default:"5"`
	MaxBodyBytes    int64   `envconfig:"MAX_BODY_BYTES" default:"1048576"`
	TrustProxy      bool    `envconfig:"TRUST_PROXY" default:"false"`
}

const prefix = "EMS"

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants envconfig tags cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("jwt secret must be provided")
	}
	if c.JWTTTL <= 0 {
		return errors.New("jwt ttl must be positive")
	}
	if c.LoginRateBurst <= 0 || c.LoginRatePerSec <= 0 {
		return errors.New("login rate limits must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("max body bytes must be positive")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}
