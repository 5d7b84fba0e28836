package authgate

import (
	"context"
	"strconv"

	"github.com/adminkit/authgate/jwt"
)

// Logout records the sign-out for the audit trail. Token invalidation
// is left to expiry: clients discard their pair and the server-side
// records lapse on their own TTLs, so Logout never fails, even when
// handed a stale or garbled token.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	var userID int64
	if claims, err := e.codec.Decode(accessToken); err == nil && claims.Type == jwt.TypeAccess {
		userID, _ = strconv.ParseInt(claims.Subject, 10, 64)
	}

	e.metrics.logout()
	e.emitAudit(ctx, AuditEvent{
		Action:       "AUTH_LOGOUT",
		ResourceType: "auth",
		OperatorID:   userID,
		Success:      true,
	})
	return nil
}
