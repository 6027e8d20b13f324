package token

import "errors"

// Error is a token failure with a stable wire code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// The complete set of token failures. Callers switch on these with errors.Is.
var (
	ErrTokenInvalid   = &Error{Code: "TOKEN_INVALID", Message: "token is malformed or unknown"}
	ErrWrongTokenType = &Error{Code: "WRONG_TOKEN_TYPE", Message: "a refresh token cannot be used as a bearer token"}
	ErrTokenExpired   = &Error{Code: "TOKEN_EXPIRED", Message: "token has expired"}
	ErrTokenRevoked   = &Error{Code: "TOKEN_REVOKED", Message: "token has been revoked"}
	ErrTokenReused    = &Error{Code: "AUTH_TOKEN_REUSED", Message: "refresh token was already used; all tokens of this session were revoked"}
)

// AsError unwraps err to a token failure.
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
