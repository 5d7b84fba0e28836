package authgate

import (
	"context"
	"time"

	"github.com/adminkit/authgate/internal/audit"
	"github.com/adminkit/authgate/rbac"
)

// Role and PrincipalView are defined in package rbac; aliased here so
// callers of the engine rarely need a second import.
type (
	Role          = rbac.Role
	PrincipalView = rbac.PrincipalView
)

// AuditEvent and AuditSink re-export the audit types for custom sinks.
type (
	AuditEvent = audit.Event
	AuditSink  = audit.Sink
)

// Credential is one submitted login attempt.
type Credential struct {
	Username string
	Password string
	DeviceID string
}

// Principal is a directory account as the engine sees it. PasswordHash
// is the stored PHC string and never leaves the engine.
type Principal struct {
	ID           int64
	Username     string
	FullName     string
	Email        string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	LockedUntil  *time.Time
	Roles        []Role
	Attributes   map[string]any
}

// PrimaryRole returns the first assigned role, or nil when the account
// has none.
func (p *Principal) PrimaryRole() *Role {
	if len(p.Roles) == 0 {
		return nil
	}
	return &p.Roles[0]
}

// Directory is the pluggable principal store. Implementations return
// [ErrPrincipalNotFound] for unknown accounts; any other error is
// treated as a backend outage and fails the operation closed.
type Directory interface {
	FindByUsername(ctx context.Context, username string) (*Principal, error)
	FindByID(ctx context.Context, id int64) (*Principal, error)
	SetLockUntil(ctx context.Context, id int64, until time.Time) error
	ClearLockUntil(ctx context.Context, id int64) error
}

// TokenPair is the issued token material in wire shape.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SessionInfo is the session half of a login response.
type SessionInfo struct {
	SID       string    `json:"sid"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResult is everything a successful login or refresh returns.
type LoginResult struct {
	Tokens  TokenPair     `json:"tokens"`
	Session SessionInfo   `json:"session"`
	User    PrincipalView `json:"user"`
}

// AuthResult is the outcome of authenticating an access token. The
// fields come straight from the verified claims.
type AuthResult struct {
	UserID      int64
	Role        string
	RoleID      string
	Permissions []string
	JTI         string
	DeviceID    string
}
