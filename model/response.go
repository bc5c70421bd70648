package model

// APIResponse is the envelope for every auth endpoint response.
type APIResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}
