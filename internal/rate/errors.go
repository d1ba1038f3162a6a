package rate

import "errors"

var (
	// ErrRateLimited is an exported constant or variable used by the session registry.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable is an exported constant or variable used by the session registry.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
