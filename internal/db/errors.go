package db

import "errors"

// Sentinel errors for backend operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrClosed      = errors.New("db: store closed")
)

// Op constants map to Redis command names for error context.
const (
	OpPing     = "PING"
	OpDel      = "DEL"
	OpGet      = "GET"
	OpSet      = "SET"
	OpSetNX    = "SETNX"
	OpExpire   = "EXPIRE"
	OpSAdd     = "SADD"
	OpSMembers = "SMEMBERS"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
