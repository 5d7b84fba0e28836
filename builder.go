package authgate

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/adminkit/authgate/internal/audit"
	"github.com/adminkit/authgate/internal/limiters"
	"github.com/adminkit/authgate/internal/rate"
	"github.com/adminkit/authgate/jwt"
	"github.com/adminkit/authgate/password"
	"github.com/adminkit/authgate/session"
	"github.com/adminkit/authgate/token"
)

// Builder assembles an [Engine]. Configure it once, call Build, and
// discard it; a builder is not reusable.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	directory Directory
	auditSink AuditSink
	registry  prometheus.Registerer
	clock     func() time.Time

	built bool
}

// New returns a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing tokens, sessions, lockout
// counters, and the login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory sets the principal store.
func (b *Builder) WithDirectory(dir Directory) *Builder {
	b.directory = dir
	return b
}

// WithAuditSink sets where audit events are delivered. Without one,
// enabled auditing falls back to a no-op sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsRegistry enables Prometheus instrumentation on the given
// registry.
func (b *Builder) WithMetricsRegistry(reg prometheus.Registerer) *Builder {
	b.registry = reg
	return b
}

// WithClock overrides the time source. Tests use this to step through
// lockout windows without sleeping.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.directory == nil {
		return nil, errors.New("principal directory required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	codec, err := jwt.NewCodec(jwt.Config{
		Algorithm:  b.config.Token.Algorithm,
		SigningKey: b.config.Token.SigningKey,
		PublicKey:  b.config.Token.PublicKey,
		VerifyKeys: b.config.Token.VerifyKeys,
		Issuer:     b.config.Token.Issuer,
		Leeway:     b.config.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(b.config.Password)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    b.config,
		directory: b.directory,
		hasher:    hasher,
		codec:     codec,
		issuer: token.NewIssuer(b.redis, codec, token.Config{
			AccessTTL:  b.config.Token.AccessTTL,
			RefreshTTL: b.config.Token.RefreshTTL,
		}),
		sessions: session.NewRegistry(b.redis),
		lockout: limiters.NewLockout(b.redis, limiters.LockoutConfig{
			Threshold: b.config.Lockout.Threshold,
			Window:    b.config.Lockout.Window,
		}),
		limiter: rate.New(b.redis),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    b.config.Audit.Enabled,
			BufferSize: b.config.Audit.BufferSize,
			DropIfFull: b.config.Audit.DropIfFull,
		}, b.auditSink),
		clock: b.clock,
	}
	if engine.clock == nil {
		engine.clock = time.Now
	}
	if b.registry != nil {
		engine.metrics = NewMetrics(b.registry)
	}

	b.built = true
	return engine, nil
}
