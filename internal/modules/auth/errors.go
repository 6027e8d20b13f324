package auth

import (
	"errors"
	"net/http"

	"quizplatform/internal/modules/token"
)

// Error is an account or credential failure with a stable wire code.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string { return e.Message }

var (
	ErrInvalidCredentials = &Error{Code: "AUTH_INVALID_CREDENTIALS", Message: "email or password is incorrect", Status: http.StatusUnauthorized}
	ErrUserBlocked        = &Error{Code: "AUTH_USER_BLOCKED", Message: "account is blocked", Status: http.StatusForbidden}
	ErrUserInactive       = &Error{Code: "AUTH_USER_INACTIVE", Message: "account is not activated", Status: http.StatusForbidden}
	ErrRateLimited        = &Error{Code: "RATE_LIMITED", Message: "too many requests, try again later", Status: http.StatusTooManyRequests}
	ErrUserNotFound       = &Error{Code: "USER_NOT_FOUND", Message: "user not found", Status: http.StatusNotFound}
	ErrMissingBearer      = &Error{Code: "TOKEN_INVALID", Message: "authorization header must be 'Bearer <token>'", Status: http.StatusUnauthorized}
)

// Classify maps a service error to an HTTP status and wire code. ok is false for
// unexpected errors, which callers report as 500.
func Classify(err error) (status int, code, message string, ok bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status, ae.Code, ae.Message, true
	}
	if te, isToken := token.AsError(err); isToken {
		return http.StatusUnauthorized, te.Code, te.Message, true
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", false
}
