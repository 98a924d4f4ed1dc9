package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady indicates the link is not synchronized.
	ErrNotReady = errors.New("bridge not ready")
	// ErrNoReply indicates no reply received from the firmware.
	// This happens when a reply is received for a later request, and
	// all earlier requests fail with this error.
	ErrNoReply = errors.New("no reply")
	// ErrTimeout indicates a request expired without a reply.
	ErrTimeout = errors.New("request timeout")
)

// OpError wraps error codes from a failed reply.
type OpError struct {
	Code byte
}

// Error implements error.
func (e *OpError) Error() string {
	return fmt.Sprintf("bus operation error %d", e.Code)
}
