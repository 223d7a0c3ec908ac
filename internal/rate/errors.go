package rate

import "errors"

var (
	// ErrRateLimited reports that the attempt budget of the current window is spent.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps a failed counter read or write.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
