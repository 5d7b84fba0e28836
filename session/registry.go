package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRegistryUnavailable wraps transport failures talking to Redis.
var ErrRegistryUnavailable = errors.New("session registry unavailable")

// Info describes one live session.
type Info struct {
	SID       string    `json:"sid"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Registry creates and invalidates sessions.
type Registry struct {
	redis redis.UniversalClient
}

// NewRegistry creates a [Registry] over the given Redis client.
func NewRegistry(redisClient redis.UniversalClient) *Registry {
	return &Registry{redis: redisClient}
}

// NewSID returns a fresh unguessable session id.
func NewSID() string {
	u := uuid.New()
	return "sess_" + hex.EncodeToString(u[:])
}

func key(sid string) string { return "sess:" + sid }

// Create registers a new session tied to the given refresh token jti
// and expiring exactly at expiresAt.
func (r *Registry) Create(ctx context.Context, userID int64, refreshJTI, deviceID string, expiresAt time.Time) (*Info, error) {
	sid := NewSID()

	fields := map[string]any{
		"user_id":     strconv.FormatInt(userID, 10),
		"refresh_jti": refreshJTI,
		"expires_at":  strconv.FormatInt(expiresAt.Unix(), 10),
	}
	if deviceID != "" {
		fields["device_id"] = deviceID
	}

	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key(sid), fields)
		pipe.ExpireAt(ctx, key(sid), expiresAt)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	return &Info{SID: sid, UserID: userID, ExpiresAt: expiresAt}, nil
}

// Get loads a session by id, returning (nil, nil) when it does not
// exist or has expired.
func (r *Registry) Get(ctx context.Context, sid string) (*Info, error) {
	fields, err := r.redis.HGetAll(ctx, key(sid)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil {
		return nil, nil
	}
	info := &Info{SID: sid, UserID: userID}
	if unix, err := strconv.ParseInt(fields["expires_at"], 10, 64); err == nil {
		info.ExpiresAt = time.Unix(unix, 0)
	}
	return info, nil
}

// Invalidate removes a session. Unknown ids are a no-op.
func (r *Registry) Invalidate(ctx context.Context, sid string) error {
	if err := r.redis.Del(ctx, key(sid)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	return nil
}
