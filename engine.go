package authgate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/adminkit/authgate/internal/audit"
	"github.com/adminkit/authgate/internal/limiters"
	"github.com/adminkit/authgate/internal/rate"
	"github.com/adminkit/authgate/jwt"
	"github.com/adminkit/authgate/password"
	"github.com/adminkit/authgate/rbac"
	"github.com/adminkit/authgate/session"
	"github.com/adminkit/authgate/token"
)

// Engine is the authentication and authorization core. Construct one
// with [New] and share it; all methods are safe for concurrent use.
type Engine struct {
	config    Config
	directory Directory
	hasher    *password.Argon2
	codec     *jwt.Codec
	issuer    *token.Issuer
	sessions  *session.Registry
	lockout   *limiters.Lockout
	limiter   *rate.Limiter
	audit     *audit.Dispatcher
	metrics   *Metrics
	clock     func() time.Time
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports how many audit events were discarded because
// the dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Authenticate verifies an access token and returns the identity and
// permissions embedded in it. Expired tokens fail with
// [ErrTokenExpired]; anything else invalid with [ErrInvalidCredential].
// With CheckAccessRevocation enabled the jti is also checked against
// the blacklist.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.Decode(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidCredential
	}
	if claims.Type != jwt.TypeAccess {
		return nil, ErrInvalidCredential
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	if e.config.CheckAccessRevocation {
		listed, err := e.issuer.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if listed {
			return nil, ErrInvalidCredential
		}
	}

	return &AuthResult{
		UserID:      userID,
		Role:        claims.Role,
		RoleID:      claims.RoleID,
		Permissions: claims.Permissions,
		JTI:         claims.ID,
		DeviceID:    claims.DeviceID,
	}, nil
}

// IsAllowed evaluates whether the principal may perform action on
// resource, optionally inside a namespace. Superusers are always
// allowed; everyone else goes through role permission matching.
func (e *Engine) IsAllowed(p *Principal, resource, action, namespace string) bool {
	if p == nil {
		return false
	}
	if p.IsSuperuser {
		return true
	}
	return rbac.Allowed(p.Roles, resource, action, namespace)
}

// PrincipalView loads an account and projects it into the shape the
// console frontend consumes.
func (e *Engine) PrincipalView(ctx context.Context, userID int64) (*PrincipalView, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	principal, err := e.directory.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	view := rbac.BuildView(principal.Username, principal.Roles, principal.Attributes)
	return &view, nil
}

// emitAudit queues one audit event; delivery is asynchronous and never
// blocks the calling flow.
func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if event.TraceID == "" {
		event.TraceID = audit.NewTraceID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.clock()
	}
	e.audit.Emit(ctx, event)
}
