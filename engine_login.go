package authgate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/adminkit/authgate/internal/rate"
	"github.com/adminkit/authgate/rbac"
)

// Login authenticates a credential and, on success, issues a token
// pair, registers a session, and returns the principal's console view.
//
// Failures are deliberately coarse: unknown accounts, wrong passwords,
// and inactive accounts all surface as [ErrInvalidCredential]. Locked
// accounts surface as a [LockedError] without the password ever being
// checked, and the per-username throttle counts every attempt, so a
// credential-stuffing run burns its budget on misses too.
func (e *Engine) Login(ctx context.Context, cred Credential) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.limiter.Check(ctx, rate.LoginKey(cred.Username), e.config.RateLimit.Limit, e.config.RateLimit.Window); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metrics.rateLimit()
			e.auditLogin(ctx, cred.Username, 0, false, "rate limited")
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	principal, err := e.directory.FindByUsername(ctx, cred.Username)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			e.metrics.loginAttempt("invalid")
			e.auditLogin(ctx, cred.Username, 0, false, "unknown account")
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !principal.IsActive {
		e.metrics.loginAttempt("invalid")
		e.auditLogin(ctx, cred.Username, principal.ID, false, "account inactive")
		return nil, ErrInvalidCredential
	}

	now := e.clock()
	if principal.LockedUntil != nil {
		if principal.LockedUntil.After(now) {
			e.metrics.loginAttempt("locked")
			e.auditLogin(ctx, cred.Username, principal.ID, false, "account locked")
			return nil, newLockedError(*principal.LockedUntil, now)
		}
		// The lock has lapsed; clear it lazily so the stale deadline
		// does not linger on the account.
		if err := e.directory.ClearLockUntil(ctx, principal.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		principal.LockedUntil = nil
	}

	ok, err := e.hasher.Verify(cred.Password, principal.PasswordHash)
	if err != nil || !ok {
		return nil, e.recordFailedPassword(ctx, cred.Username, principal)
	}

	if err := e.lockout.Reset(ctx, principal.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	result, err := e.issueFor(ctx, principal, cred.DeviceID)
	if err != nil {
		return nil, err
	}

	e.metrics.loginAttempt("success")
	e.auditLogin(ctx, cred.Username, principal.ID, true, "")
	return result, nil
}

// recordFailedPassword counts the failure and converts the threshold
// crossing into a persisted lock.
func (e *Engine) recordFailedPassword(ctx context.Context, username string, principal *Principal) error {
	attempts, locked, err := e.lockout.RecordFailure(ctx, principal.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if locked {
		until := e.clock().Add(e.config.Lockout.LockDuration)
		if err := e.directory.SetLockUntil(ctx, principal.ID, until); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		e.metrics.lockout()
		e.metrics.loginAttempt("locked")
		e.auditLogin(ctx, username, principal.ID, false, fmt.Sprintf("locked after %d failures", attempts))
		return newLockedError(until, e.clock())
	}

	e.metrics.loginAttempt("invalid")
	e.auditLogin(ctx, username, principal.ID, false, "wrong password")
	return ErrInvalidCredential
}

// issueFor mints a token pair and session for an authenticated
// principal. Shared by login and refresh.
func (e *Engine) issueFor(ctx context.Context, principal *Principal, deviceID string) (*LoginResult, error) {
	var roleCode, roleID string
	if role := principal.PrimaryRole(); role != nil {
		roleCode = role.Code
		roleID = strconv.FormatInt(role.ID, 10)
	}

	permissions := rbac.PermissionStrings(principal.Roles)
	if principal.IsSuperuser {
		permissions = []string{rbac.WildcardToken}
	}

	pair, err := e.issuer.IssuePair(ctx, principal.ID, roleCode, roleID, permissions, deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sess, err := e.sessions.Create(ctx, principal.ID, pair.RefreshClaims.ID, deviceID, pair.RefreshClaims.ExpiresAt.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	view := rbac.BuildView(principal.Username, principal.Roles, principal.Attributes)
	if principal.IsSuperuser {
		view.Permissions = []string{rbac.WildcardToken}
	}

	return &LoginResult{
		Tokens: TokenPair{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    pair.ExpiresIn,
		},
		Session: SessionInfo{SID: sess.SID, ExpiresAt: sess.ExpiresAt},
		User:    view,
	}, nil
}

func (e *Engine) auditLogin(ctx context.Context, username string, userID int64, success bool, reason string) {
	e.emitAudit(ctx, AuditEvent{
		Action:       "AUTH_LOGIN",
		ResourceType: "auth",
		OperatorID:   userID,
		OperatorName: username,
		Success:      success,
		Error:        reason,
	})
}
