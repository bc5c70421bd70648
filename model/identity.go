package model

// Identity is the caller resolved from a verified access token. It lives for a
// single request.
type Identity struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

func (i Identity) HasRole(role Role) bool {
	return i.Role == role
}
