package service

import "errors"

// AuthError is a client facing authentication failure. Its message is a stable
// code that the HTTP layer returns as is.
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string {
	return e.Code
}

var (
	ErrInvalidCredentials  = &AuthError{Code: "invalid_credentials"}
	ErrInvalidToken        = &AuthError{Code: "invalid_token"}
	ErrInvalidRefreshToken = &AuthError{Code: "invalid_refresh_token"}
	ErrInvalidTokenType    = &AuthError{Code: "invalid_token_type"}
	ErrInvalidSubject      = &AuthError{Code: "invalid_subject"}
	ErrMissingRole         = &AuthError{Code: "missing_role"}
	ErrMissingToken        = &AuthError{Code: "missing_refresh_cookie"}
	ErrRefreshNotFound     = &AuthError{Code: "refresh_not_found"}
	ErrRefreshRevoked      = &AuthError{Code: "refresh_revoked"}
	ErrRefreshExpired      = &AuthError{Code: "refresh_expired"}
	ErrUserNotFound        = &AuthError{Code: "user_not_found"}
)

// IsAuthFailure reports whether err is an authentication failure as opposed to
// an internal one.
func IsAuthFailure(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
