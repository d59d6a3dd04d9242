package command

import "fmt"

// Kind classifies why a command failed.
type Kind string

const (
	// KindValidation: the command was rejected before it ran.
	KindValidation Kind = "validation"
	// KindTimeout: the reducer did not finish before the deadline.
	KindTimeout Kind = "timeout"
	// KindInternal: the isolated run faulted or returned a malformed state.
	KindInternal Kind = "internal"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrTimeout    = &Error{Kind: KindTimeout}
	ErrInternal   = &Error{Kind: KindInternal}
)

// Error is the structured failure returned by Executor.Execute.
type Error struct {
	Kind    Kind
	Message string
	Audit   AuditRecord
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func validationError(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: message, Cause: cause}
}
