package conversation

import "fmt"

type ErrorCode string

const (
	ErrorUnknownEvent   ErrorCode = "UNKNOWN_EVENT"
	ErrorInvalidPayload ErrorCode = "INVALID_PAYLOAD"
	ErrorStopped        ErrorCode = "ENGINE_STOPPED"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("conversation: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("conversation: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
