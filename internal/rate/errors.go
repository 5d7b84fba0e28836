package rate

import "errors"

var (
	// ErrRateLimited means the counter exceeded its limit inside the window.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps transport failures talking to Redis.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
