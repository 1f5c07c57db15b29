package giftbuf

import (
	"errors"
	"fmt"
)

var (
	// ErrCandidateTooLarge is returned when a candidate line does not fit in
	// an empty buffer.
	ErrCandidateTooLarge = errors.New("candidate larger than buffer")

	// ErrInvalidPagePages is returned when the buffer length in pages is not positive.
	ErrInvalidPagePages = errors.New("page count must be positive")
)

// ErrInvalidArgument indicates a name or distance the enumerator rejects.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidArgument struct {
	Name        string
	MaxDistance int
	cause       error
}

func (e *ErrInvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument (name %q, max distance %d): %v", e.Name, e.MaxDistance, e.cause)
}

func (e *ErrInvalidArgument) Unwrap() error { return e.cause }

// OpError records the role and operation that failed.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type OpError struct {
	Role string
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Role, e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opError(role, op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Role: role, Op: op, Err: err}
}
