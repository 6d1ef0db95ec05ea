package client

import "errors"

var (
	ErrUnavailable   = errors.New("server unavailable")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrResyncRequired means the authority no longer accepts the
	// checkpoint and the device must run a full resync.
	ErrResyncRequired = errors.New("full resync required")
)
