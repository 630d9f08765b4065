package apperrors

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeValidation            Code = "validation"
	CodePastDate              Code = "past_date"
	CodeNotOwner              Code = "not_owner"
	CodeSelfSubscription      Code = "self_subscription"
	CodeDuplicateSubscription Code = "duplicate_subscription"
	CodeScheduleConflict      Code = "schedule_conflict"
	CodeNotFound              Code = "not_found"
)

// Error is a request-terminal business error. Two errors match under errors.Is
// when their codes are equal, so callers can compare against the sentinels below
// regardless of the message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrValidation            = &Error{Code: CodeValidation, Message: "Validation fails"}
	ErrPastDate              = &Error{Code: CodePastDate, Message: "Past dates are not permitted"}
	ErrNotOwner              = &Error{Code: CodeNotOwner, Message: "User must be the owner"}
	ErrSelfSubscription      = &Error{Code: CodeSelfSubscription, Message: "Cannot subscribe to owned meetups"}
	ErrDuplicateSubscription = &Error{Code: CodeDuplicateSubscription, Message: "User already subscribed!"}
	ErrScheduleConflict      = &Error{Code: CodeScheduleConflict, Message: "Cannot subscribe to a same date/time meetup, choose another"}
	ErrNotFound              = &Error{Code: CodeNotFound, Message: "Not found"}
)

// Invalid is a validation failure with its own message.
func Invalid(message string) error {
	return &Error{Code: CodeValidation, Message: message}
}

func PastDate(message string) error {
	return &Error{Code: CodePastDate, Message: message}
}

func NotFound(message string) error {
	return &Error{Code: CodeNotFound, Message: message}
}

// HTTPStatus maps err to a response status. Anything that is not an *Error is a 500.
func HTTPStatus(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation, CodePastDate:
		return http.StatusBadRequest
	case CodeNotOwner, CodeSelfSubscription, CodeDuplicateSubscription, CodeScheduleConflict:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text for err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}

// Outcome labels err for metrics: "ok" for nil, the code for an *Error and
// "internal" for anything else.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return string(appErr.Code)
	}
	return "internal"
}
