package errors

import "errors"

// Transport errors.
var (
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	ErrPeerTimeout   = errors.New("peer heartbeat timed out")
)
