package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/amirhosseinghanipour/expensa/internal/application/access"
)

// MinSessionSecretLength is the shortest accepted SESSION_SECRET, in bytes.
const MinSessionSecretLength = 32

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Argon2   Argon2Config
	Lockout  LockoutConfig
	Gate     GateConfig
	Webhook  WebhookConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	RateLimitIP string
	CORSOrigins []string
}

// Production reports whether cookies are Secure and logs are JSON.
func (s ServerConfig) Production() bool { return s.Env != "development" }

type DatabaseConfig struct {
	// URL empty selects the in-memory registry.
	URL       string
	TxTimeout time.Duration
}

type RedisConfig struct {
	URL string
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

type LockoutConfig struct {
	MaxAttempts int
	Cooldown    time.Duration
}

type GateConfig struct {
	LoginPath   string
	LandingPath string
}

// Rules returns the default gate rules redirecting to the configured paths.
func (g GateConfig) Rules() access.Rules {
	r := access.DefaultRules()
	r.LoginPath = g.LoginPath
	r.LandingPath = g.LandingPath
	return r
}

type WebhookConfig struct {
	URL    string
	// Secret signs deliveries with HMAC-SHA256. It must differ from SESSION_SECRET.
	Secret string
}

// Load reads configuration from the environment and, when CONFIG_FILE is set, that file.
// Environment values win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		v.SetConfigFile(p)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			Env:         strings.ToLower(v.GetString("APP_ENV")),
			RateLimitIP: v.GetString("RATE_LIMIT_IP"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			URL:       v.GetString("DATABASE_URL"),
			TxTimeout: v.GetDuration("DB_TX_TIMEOUT"),
		},
		Redis: RedisConfig{
			URL: v.GetString("REDIS_URL"),
		},
		Session: SessionConfig{
			Secret: v.GetString("SESSION_SECRET"),
			TTL:    v.GetDuration("SESSION_TTL"),
			Issuer: v.GetString("SESSION_ISSUER"),
		},
		Argon2: Argon2Config{
			Memory:      uint32(v.GetUint("ARGON2_MEMORY")),
			Iterations:  uint32(v.GetUint("ARGON2_ITERATIONS")),
			Parallelism: uint8(v.GetUint("ARGON2_PARALLELISM")),
		},
		Lockout: LockoutConfig{
			MaxAttempts: v.GetInt("LOCKOUT_MAX_ATTEMPTS"),
			Cooldown:    v.GetDuration("LOCKOUT_COOLDOWN"),
		},
		Gate: GateConfig{
			LoginPath:   v.GetString("GATE_LOGIN_PATH"),
			LandingPath: v.GetString("GATE_LANDING_PATH"),
		},
		Webhook: WebhookConfig{
			URL:    v.GetString("WEBHOOK_URL"),
			Secret: v.GetString("WEBHOOK_SECRET"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("DB_TX_TIMEOUT", 5*time.Second)
	v.SetDefault("SESSION_TTL", 15*time.Minute)
	v.SetDefault("SESSION_ISSUER", "expensa")
	v.SetDefault("ARGON2_MEMORY", 64*1024)
	v.SetDefault("ARGON2_ITERATIONS", 3)
	v.SetDefault("ARGON2_PARALLELISM", 2)
	v.SetDefault("LOCKOUT_MAX_ATTEMPTS", 5)
	v.SetDefault("LOCKOUT_COOLDOWN", 15*time.Minute)
	v.SetDefault("RATE_LIMIT_IP", "100-M")
	v.SetDefault("GATE_LOGIN_PATH", "/login")
	v.SetDefault("GATE_LANDING_PATH", "/dashboard")
}

func (c *Config) validate() error {
	var errs []error
	switch {
	case c.Session.Secret == "":
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	case len(c.Session.Secret) < MinSessionSecretLength:
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", MinSessionSecretLength))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Database.TxTimeout <= 0 {
		errs = append(errs, errors.New("DB_TX_TIMEOUT must be positive"))
	}
	if c.Server.Env != "production" && c.Server.Env != "development" {
		errs = append(errs, fmt.Errorf("APP_ENV must be production or development, got %q", c.Server.Env))
	}
	if !strings.HasPrefix(c.Gate.LoginPath, "/") || !strings.HasPrefix(c.Gate.LandingPath, "/") {
		errs = append(errs, errors.New("GATE_LOGIN_PATH and GATE_LANDING_PATH must be absolute paths"))
	} else if err := c.Gate.Rules().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("gate: %w", err))
	}
	if c.Webhook.Secret != "" && c.Webhook.Secret == c.Session.Secret {
		errs = append(errs, errors.New("WEBHOOK_SECRET must differ from SESSION_SECRET"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
