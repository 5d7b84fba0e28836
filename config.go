package authgate

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/adminkit/authgate/jwt"
	"github.com/adminkit/authgate/password"
)

// TokenConfig holds token lifetimes and signing material.
type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Algorithm  jwt.Algorithm
	SigningKey []byte
	PublicKey  []byte
	VerifyKeys [][]byte
	Issuer     string
	Leeway     time.Duration
}

// LockoutConfig tunes automatic account lockout.
type LockoutConfig struct {
	Threshold    int           // consecutive failures that trigger a lock
	Window       time.Duration // counting window for failures
	LockDuration time.Duration // how long a triggered lock lasts
}

// RateLimitConfig tunes the per-username login throttle.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Config is the full engine configuration. Start from [DefaultConfig]
// and override what the deployment needs.
type Config struct {
	Token     TokenConfig
	Lockout   LockoutConfig
	RateLimit RateLimitConfig
	Password  password.Config
	Audit     AuditConfig

	// CheckAccessRevocation makes Authenticate consult the blacklist on
	// every access token, trading a Redis round trip for immediate
	// revocation.
	CheckAccessRevocation bool
}

// DefaultConfig returns production defaults: 15 minute access tokens,
// 24 hour refresh tokens, lock after 5 failures in 15 minutes for 15
// minutes, throttle at 5 login calls per username per minute.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 24 * time.Hour,
			Algorithm:  jwt.AlgHS256,
		},
		Lockout: LockoutConfig{
			Threshold:    5,
			Window:       15 * time.Minute,
			LockDuration: 15 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Limit:  5,
			Window: time.Minute,
		},
		Password: password.DefaultConfig(),
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("refresh lifetime must not be shorter than access lifetime")
	}
	if len(c.Token.SigningKey) == 0 {
		return errors.New("token signing key required")
	}
	if c.Lockout.Threshold < 1 {
		return errors.New("lockout threshold must be >= 1")
	}
	if c.Lockout.Window <= 0 || c.Lockout.LockDuration <= 0 {
		return errors.New("lockout durations must be positive")
	}
	if c.RateLimit.Limit < 1 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit must allow at least one attempt per window")
	}
	return nil
}

// LoadEnv loads .env files into the process environment before
// [ConfigFromEnv] reads it. Missing files are not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ConfigFromEnv builds a config from AUTHGATE_* environment variables,
// falling back to [DefaultConfig] for anything unset.
//
//	AUTHGATE_JWT_SECRET         signing secret (required for hs256)
//	AUTHGATE_JWT_ALGORITHM      "hs256" or "ed25519"
//	AUTHGATE_JWT_ISSUER         iss claim
//	AUTHGATE_ACCESS_TTL         Go duration, e.g. "15m"
//	AUTHGATE_REFRESH_TTL        Go duration, e.g. "24h"
//	AUTHGATE_LOCKOUT_THRESHOLD  failures before lock
//	AUTHGATE_LOCKOUT_WINDOW     Go duration
//	AUTHGATE_LOCK_DURATION      Go duration
//	AUTHGATE_RATE_LIMIT         login attempts per window
//	AUTHGATE_RATE_WINDOW        Go duration
//	AUTHGATE_AUDIT_ENABLED      "true" / "false"
//	AUTHGATE_CHECK_REVOCATION   "true" / "false"
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("AUTHGATE_JWT_SECRET"); v != "" {
		cfg.Token.SigningKey = []byte(v)
	}
	if v := os.Getenv("AUTHGATE_JWT_ALGORITHM"); v != "" {
		cfg.Token.Algorithm = jwt.Algorithm(v)
	}
	if v := os.Getenv("AUTHGATE_JWT_ISSUER"); v != "" {
		cfg.Token.Issuer = v
	}

	var err error
	if cfg.Token.AccessTTL, err = envDuration("AUTHGATE_ACCESS_TTL", cfg.Token.AccessTTL); err != nil {
		return cfg, err
	}
	if cfg.Token.RefreshTTL, err = envDuration("AUTHGATE_REFRESH_TTL", cfg.Token.RefreshTTL); err != nil {
		return cfg, err
	}
	if cfg.Lockout.Threshold, err = envInt("AUTHGATE_LOCKOUT_THRESHOLD", cfg.Lockout.Threshold); err != nil {
		return cfg, err
	}
	if cfg.Lockout.Window, err = envDuration("AUTHGATE_LOCKOUT_WINDOW", cfg.Lockout.Window); err != nil {
		return cfg, err
	}
	if cfg.Lockout.LockDuration, err = envDuration("AUTHGATE_LOCK_DURATION", cfg.Lockout.LockDuration); err != nil {
		return cfg, err
	}
	if cfg.RateLimit.Limit, err = envInt("AUTHGATE_RATE_LIMIT", cfg.RateLimit.Limit); err != nil {
		return cfg, err
	}
	if cfg.RateLimit.Window, err = envDuration("AUTHGATE_RATE_WINDOW", cfg.RateLimit.Window); err != nil {
		return cfg, err
	}
	if cfg.Audit.Enabled, err = envBool("AUTHGATE_AUDIT_ENABLED", cfg.Audit.Enabled); err != nil {
		return cfg, err
	}
	if cfg.CheckAccessRevocation, err = envBool("AUTHGATE_CHECK_REVOCATION", cfg.CheckAccessRevocation); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func envInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func envBool(name string, fallback bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}
