package authgate

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredential covers unknown usernames, wrong passwords, and
	// disabled accounts alike so responses never reveal which it was.
	ErrInvalidCredential = errors.New("invalid username or password")
	// ErrAccountLocked means the account is under an active lockout.
	ErrAccountLocked = errors.New("account locked")
	// ErrTokenExpired means the token verified but its exp is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrRefreshInvalid covers malformed, replayed, revoked, and
	// wrong-type refresh tokens.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrForbidden means the principal lacks the required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrRateLimited means the login throttle rejected the attempt.
	ErrRateLimited = errors.New("too many requests")
	// ErrStoreUnavailable means Redis or the principal directory was
	// unreachable; the operation failed closed.
	ErrStoreUnavailable = errors.New("auth store unavailable")
	// ErrPrincipalNotFound is returned by directory lookups for unknown
	// accounts.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrEngineNotReady means the engine was used before Build completed.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// LockedError carries the lockout deadline alongside [ErrAccountLocked].
// RemainingMinutes counts whole minutes left and never drops below one,
// so a lock about to lapse still reads as "try again in 1 minute".
type LockedError struct {
	Until            time.Time
	RemainingMinutes int
}

func newLockedError(until time.Time, now time.Time) *LockedError {
	remaining := int(until.Sub(now) / time.Minute)
	if remaining < 1 {
		remaining = 1
	}
	return &LockedError{Until: until, RemainingMinutes: remaining}
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minutes", e.RemainingMinutes)
}

// Is lets errors.Is(err, ErrAccountLocked) match.
func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
