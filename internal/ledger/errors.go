package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger error so callers can map it to a transport status
// without string matching.
type Kind string

const (
	// KindValidation marks malformed or out-of-range input.
	KindValidation Kind = "VALIDATION_ERROR"
	// KindNotFound marks a referenced player or cash-out id that is absent.
	KindNotFound Kind = "NOT_FOUND"
	// KindInvalidOperation marks a state-machine violation, such as mutating
	// a closed session or removing a player with financial history.
	KindInvalidOperation Kind = "INVALID_OPERATION"
)

// Error is a typed ledger failure. Every command fails synchronously with
// one of these; nothing is retried internally.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidOpf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidOperation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a ledger error, or "" for any other error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
