package common

import (
	"encoding/json"
	"jwt-auth-api/logger"
	"jwt-auth-api/model"
	"net/http"

	"github.com/sirupsen/logrus"
)

// AppError is an HTTP failure. Message is the stable code sent to the client;
// Err is logged and never sent.
type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Send(w http.ResponseWriter) {
	if e.Err != nil {
		logger.Log.WithFields(logrus.Fields{
			"status_code":    e.Code,
			"internal_error": e.Err.Error(),
		}).Error(e.Message)
	}

	WriteJSON(w, e.Code, model.APIResponse{Message: e.Message, Data: e.Data})
}

// WriteJSON writes payload as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response body")
	}
}
