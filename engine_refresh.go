package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/adminkit/authgate/jwt"
)

// Refresh rotates a refresh token: the presented token is retired and
// a brand new pair plus session comes back, bound to the caller's
// device id. Each refresh token works exactly once; a replay, a
// revoked, expired, or malformed token, or an access token passed in
// by mistake all fail with [ErrRefreshInvalid]. When two requests race
// on the same token, exactly one wins and the other gets
// [ErrRefreshInvalid].
func (e *Engine) Refresh(ctx context.Context, refreshToken, deviceID string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.Decode(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			e.metrics.refresh("expired")
		} else {
			e.metrics.refresh("invalid")
		}
		return nil, ErrRefreshInvalid
	}
	if claims.Type != jwt.TypeRefresh {
		e.metrics.refresh("invalid")
		e.auditRefresh(ctx, 0, false, "wrong token type")
		return nil, ErrRefreshInvalid
	}

	// Replay gate first: a blacklisted jti is dead even if the state
	// record somehow survived.
	listed, err := e.issuer.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if listed {
		e.metrics.refresh("replay")
		e.auditRefresh(ctx, 0, false, "token replay")
		return nil, ErrRefreshInvalid
	}

	record, err := e.issuer.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if record == nil {
		e.metrics.refresh("invalid")
		e.auditRefresh(ctx, 0, false, "no active record")
		return nil, ErrRefreshInvalid
	}

	principal, err := e.directory.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			e.metrics.refresh("invalid")
			e.auditRefresh(ctx, record.UserID, false, "principal gone")
			return nil, ErrRefreshInvalid
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !principal.IsActive {
		e.metrics.refresh("invalid")
		e.auditRefresh(ctx, record.UserID, false, "account inactive")
		return nil, ErrRefreshInvalid
	}
	now := e.clock()
	if principal.LockedUntil != nil && principal.LockedUntil.After(now) {
		e.metrics.refresh("locked")
		e.auditRefresh(ctx, record.UserID, false, "account locked")
		return nil, newLockedError(*principal.LockedUntil, now)
	}

	// Retire the presented token. The compare-and-set picks a single
	// winner under concurrency; losers are treated as replays.
	won, err := e.issuer.Revoke(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !won {
		e.metrics.refresh("replay")
		e.auditRefresh(ctx, record.UserID, false, "concurrent rotation lost")
		return nil, ErrRefreshInvalid
	}
	if err := e.issuer.Blacklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	result, err := e.issueFor(ctx, principal, deviceID)
	if err != nil {
		return nil, err
	}

	e.metrics.refresh("success")
	e.auditRefresh(ctx, principal.ID, true, "")
	return result, nil
}

func (e *Engine) auditRefresh(ctx context.Context, userID int64, success bool, reason string) {
	e.emitAudit(ctx, AuditEvent{
		Action:       "AUTH_REFRESH",
		ResourceType: "auth",
		OperatorID:   userID,
		Success:      success,
		Error:        reason,
	})
}
