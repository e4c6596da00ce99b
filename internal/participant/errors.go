package participant

import (
	"errors"
	"fmt"
)

var (
	ErrClosed     = errors.New("connection closed")
	ErrRoomFull   = errors.New("room is full")
	ErrPeerLeft   = errors.New("peer left")
	ErrNotStarted = errors.New("not connected")
)

// OpError records the operation that failed.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// NewError wraps err with the failed operation.
func NewError(op string, err error) *OpError {
	return &OpError{Op: op, Err: err}
}
