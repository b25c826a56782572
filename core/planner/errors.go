package planner

import (
	"errors"
	"fmt"
)

// Kind classifies scheduling failures.
type Kind string

const (
	KindInvalidInput        Kind = "InvalidInput"
	KindInvalidTimeFormat   Kind = "InvalidTimeFormat"
	KindWindowTooSmall      Kind = "WindowTooSmall"
	KindInfeasible          Kind = "Infeasible"
	KindDecodeInconsistency Kind = "DecodeInconsistency"
	KindUpstreamUnavailable Kind = "UpstreamUnavailable"
)

// Sentinels usable with errors.Is for each Kind.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidTimeFormat   = errors.New("invalid time format")
	ErrWindowTooSmall      = errors.New("window too small")
	ErrInfeasible          = errors.New("no feasible assignment")
	ErrDecodeInconsistency = errors.New("decode inconsistency")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

var kindSentinels = map[Kind]error{
	KindInvalidInput:        ErrInvalidInput,
	KindInvalidTimeFormat:   ErrInvalidTimeFormat,
	KindWindowTooSmall:      ErrWindowTooSmall,
	KindInfeasible:          ErrInfeasible,
	KindDecodeInconsistency: ErrDecodeInconsistency,
	KindUpstreamUnavailable: ErrUpstreamUnavailable,
}

// Error is the structured failure of a scheduling run.
type Error struct {
	Kind    Kind
	TaskID  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.TaskID != "" {
		msg += fmt.Sprintf("(%s)", e.TaskID)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool { return target == kindSentinels[e.Kind] }

// KindOf extracts the Kind of err, or "" when err is not a planner error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, ErrInfeasible) {
		return KindInfeasible
	}
	return ""
}

func newError(kind Kind, taskID, format string, args ...any) *Error {
	return &Error{Kind: kind, TaskID: taskID, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
