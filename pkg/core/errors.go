package core

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindPreconditionViolation marks a caller-observable contract breach.
	KindPreconditionViolation Kind = iota + 1
	// KindInvariantViolation marks broken internal consistency.
	KindInvariantViolation
	// KindNotFound marks a catalog lookup miss.
	KindNotFound
	// KindStarvation marks a numerical procedure without enough data.
	KindStarvation
	// KindRuntimeError marks an environmental failure such as I/O.
	KindRuntimeError
)

func (k Kind) String() string {
	switch k {
	case KindPreconditionViolation:
		return "precondition violation"
	case KindInvariantViolation:
		return "invariant violation"
	case KindNotFound:
		return "not found"
	case KindStarvation:
		return "starvation"
	case KindRuntimeError:
		return "runtime error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrPreconditionViolation = errors.New("precondition violation")
	ErrInvariantViolation    = errors.New("invariant violation")
	ErrNotFound              = errors.New("not found")
	ErrStarvation            = errors.New("starvation")
	ErrRuntime               = errors.New("runtime error")
)

// Error is a typed failure raised by the library. Op names the operation,
// Msg names the offending input.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

func sentinel(k Kind) error {
	switch k {
	case KindPreconditionViolation:
		return ErrPreconditionViolation
	case KindInvariantViolation:
		return ErrInvariantViolation
	case KindNotFound:
		return ErrNotFound
	case KindStarvation:
		return ErrStarvation
	case KindRuntimeError:
		return ErrRuntime
	}
	return nil
}

func newError(k Kind, op, format string, args ...any) *Error {
	return &Error{Kind: k, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Precondition returns a KindPreconditionViolation error.
func Precondition(op, format string, args ...any) error {
	return newError(KindPreconditionViolation, op, format, args...)
}

// Invariant returns a KindInvariantViolation error.
func Invariant(op, format string, args ...any) error {
	return newError(KindInvariantViolation, op, format, args...)
}

// NotFound returns a KindNotFound error.
func NotFound(op, format string, args ...any) error {
	return newError(KindNotFound, op, format, args...)
}

// Starvation returns a KindStarvation error.
func Starvation(op, format string, args ...any) error {
	return newError(KindStarvation, op, format, args...)
}

// Runtime wraps an environmental failure.
func Runtime(op string, err error) error {
	return &Error{Kind: KindRuntimeError, Op: op, Msg: "operation failed", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
