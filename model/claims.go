package model

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "ACCESS"
	TokenTypeRefresh TokenType = "REFRESH"
)

// AppClaims is the JWT payload for both token kinds. Email and Role are only
// set on access tokens.
type AppClaims struct {
	Type  TokenType `json:"typ,omitempty"`
	Email string    `json:"email,omitempty"`
	Role  Role      `json:"role,omitempty"`
	jwt.RegisteredClaims
}
