// internal/game/errors.go
package game

import "fmt"

// ErrorCode classifies request failures for the messaging layer.
// An illegal card play is not an error; it resolves as a forced pickup.
type ErrorCode string

const (
	CodeValidation ErrorCode = "ValidationError" // malformed or out-of-range input
	CodeForbidden  ErrorCode = "Forbidden"       // wrong actor: not host, not your turn, wrong zone
	CodeNotFound   ErrorCode = "NotFound"        // unknown room code
	CodeConflict   ErrorCode = "Conflict"        // action invalid for the current phase/stage
)

// Error is the typed failure returned by every room operation.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func validationf(format string, args ...interface{}) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func forbiddenf(format string, args ...interface{}) *Error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...interface{}) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// AsError unwraps err into a game *Error. Unknown error values are reported
// as validation failures so the client always receives a code.
func AsError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Code: CodeValidation, Message: err.Error()}
}
