package redisearch

import "errors"

// ErrIndexNotFound means the queried index does not exist on the server.
var ErrIndexNotFound = errors.New("redisearch: index not found")

// Op constants map to RediSearch command names for error context.
const (
	OpPing      = "PING"
	OpSearch    = "FT.SEARCH"
	OpAggregate = "FT.AGGREGATE"
)

// Error wraps an underlying error with the command name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
