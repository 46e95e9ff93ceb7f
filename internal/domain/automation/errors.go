package automation

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/deskdriver/internal/shared/id"
)

// Kind classifies automation failures. The HTTP layer maps each kind to a
// status code and WebDriver error name.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindNotSupported
	KindInitialization
	KindExecutionFailed
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindNotSupported:
		return "not_supported"
	case KindInitialization:
		return "initialization"
	case KindExecutionFailed:
		return "execution_failed"
	default:
		return "unknown"
	}
}

// Error is a classified automation failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNotSupported    = &Error{Kind: KindNotSupported}
	ErrInitialization  = &Error{Kind: KindInitialization}
	ErrExecutionFailed = &Error{Kind: KindExecutionFailed}
)

// ErrNoSuchSession is wrapped by every error about a session that was
// never created, was deleted or has been reaped.
var ErrNoSuchSession = errors.New("no such session")

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func notFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func sessionNotFound(sid id.SessionID) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("Session with id '%s' was not found", sid), Err: ErrNoSuchSession}
}

func validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func notSupported(format string, args ...any) error {
	return &Error{Kind: KindNotSupported, Msg: fmt.Sprintf(format, args...)}
}

func initialization(err error, format string, args ...any) error {
	return &Error{Kind: KindInitialization, Msg: fmt.Sprintf(format, args...), Err: err}
}

func executionFailed(err error, format string, args ...any) error {
	return &Error{Kind: KindExecutionFailed, Msg: fmt.Sprintf(format, args...), Err: err}
}
