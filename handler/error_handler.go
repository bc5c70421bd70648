package handler

import (
	"errors"
	"jwt-auth-api/common"
	"jwt-auth-api/service"
	"net/http"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// mapAuthError turns a service error into a response. Authentication failures
// keep their code; everything else is hidden behind internal_error.
func mapAuthError(err error) *common.AppError {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		return common.NewAppError(http.StatusUnauthorized, authErr.Code, nil)
	}
	return common.NewAppError(http.StatusInternalServerError, "internal_error", err)
}
