package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adminkit/authgate/jwt"
)

// Refresh record statuses.
const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
)

// ErrStoreUnavailable wraps transport failures talking to Redis.
var ErrStoreUnavailable = errors.New("token store unavailable")

// revokeActiveLua flips a refresh record from active to revoked. The
// compare-and-set runs server-side so exactly one of any concurrent
// callers observes the transition.
var revokeActiveLua = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if status == 'active' then
  redis.call('HSET', KEYS[1], 'status', 'revoked')
  return 1
end
return 0
`)

// Config holds token lifetimes.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Pair is one freshly issued access/refresh pair together with the
// claims that were signed into each token.
type Pair struct {
	AccessToken   string
	RefreshToken  string
	ExpiresIn     int64 // access lifetime in whole seconds
	AccessClaims  *jwt.Claims
	RefreshClaims *jwt.Claims
}

// RefreshRecord is the stored server-side state of one refresh token.
type RefreshRecord struct {
	UserID    int64
	JTI       string
	Status    string
	DeviceID  string
	ExpiresAt time.Time
}

// Issuer mints token pairs and tracks their Redis-side state.
type Issuer struct {
	redis  redis.UniversalClient
	codec  *jwt.Codec
	config Config
}

// NewIssuer creates an [Issuer] over the given Redis client and codec.
func NewIssuer(redisClient redis.UniversalClient, codec *jwt.Codec, cfg Config) *Issuer {
	return &Issuer{redis: redisClient, codec: codec, config: cfg}
}

// RefreshKey builds the state key for a raw refresh token. Keys are
// derived from a digest of the token so the token itself never lands
// in Redis.
func RefreshKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return "rt:" + hex.EncodeToString(sum[:])
}

func accessKey(jti string) string    { return "at:" + jti }
func blacklistKey(jti string) string { return "bl:" + jti }

// IssuePair mints a new access/refresh pair for the principal and
// records both sides in Redis in a single pipeline. Records expire
// exactly when their token does.
func (i *Issuer) IssuePair(ctx context.Context, userID int64, role, roleID string, permissions []string, deviceID string) (*Pair, error) {
	subject := strconv.FormatInt(userID, 10)

	accessToken, accessClaims, err := i.codec.Issue(subject, i.config.AccessTTL, jwt.TypeAccess, jwt.Extra{
		Role:        role,
		RoleID:      roleID,
		Permissions: permissions,
		DeviceID:    deviceID,
	})
	if err != nil {
		return nil, err
	}

	refreshToken, refreshClaims, err := i.codec.Issue(subject, i.config.RefreshTTL, jwt.TypeRefresh, jwt.Extra{
		Rotation: "single",
		DeviceID: deviceID,
	})
	if err != nil {
		return nil, err
	}

	accessExp := accessClaims.ExpiresAt.Time
	refreshExp := refreshClaims.ExpiresAt.Time

	refreshFields := map[string]any{
		"user_id":    subject,
		"jti":        refreshClaims.ID,
		"status":     StatusActive,
		"expires_at": strconv.FormatInt(refreshExp.Unix(), 10),
	}
	if deviceID != "" {
		refreshFields["device_id"] = deviceID
	}

	_, err = i.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, accessKey(accessClaims.ID), map[string]any{
			"user_id":    subject,
			"expires_at": strconv.FormatInt(accessExp.Unix(), 10),
		})
		pipe.ExpireAt(ctx, accessKey(accessClaims.ID), accessExp)
		pipe.HSet(ctx, RefreshKey(refreshToken), refreshFields)
		pipe.ExpireAt(ctx, RefreshKey(refreshToken), refreshExp)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &Pair{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		ExpiresIn:     int64(i.config.AccessTTL.Seconds()),
		AccessClaims:  accessClaims,
		RefreshClaims: refreshClaims,
	}, nil
}

// VerifyRefresh loads the state record for a raw refresh token. Tokens
// with no record, or whose record is not active, return (nil, nil):
// absent and revoked are indistinguishable to the caller on purpose.
func (i *Issuer) VerifyRefresh(ctx context.Context, rawToken string) (*RefreshRecord, error) {
	fields, err := i.redis.HGetAll(ctx, RefreshKey(rawToken)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(fields) == 0 || fields["status"] != StatusActive {
		return nil, nil
	}

	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil {
		return nil, nil
	}

	record := &RefreshRecord{
		UserID:   userID,
		JTI:      fields["jti"],
		Status:   fields["status"],
		DeviceID: fields["device_id"],
	}
	if unix, err := strconv.ParseInt(fields["expires_at"], 10, 64); err == nil {
		record.ExpiresAt = time.Unix(unix, 0)
	}
	return record, nil
}

// Revoke moves the refresh record from active to revoked and reports
// whether this call performed the transition. Exactly one concurrent
// caller wins; everyone else sees false.
func (i *Issuer) Revoke(ctx context.Context, rawToken string) (bool, error) {
	won, err := revokeActiveLua.Run(ctx, i.redis, []string{RefreshKey(rawToken)}).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return won == 1, nil
}

// Blacklist marks a jti as unusable until exp. A zero exp stores the
// entry without a TTL.
func (i *Issuer) Blacklist(ctx context.Context, jti string, exp time.Time) error {
	key := blacklistKey(jti)
	if err := i.redis.Set(ctx, key, "1", 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !exp.IsZero() {
		if err := i.redis.ExpireAt(ctx, key, exp).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	return nil
}

// IsBlacklisted reports whether the jti has been blacklisted.
func (i *Issuer) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := i.redis.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}
