package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for the demo API.
// Permissions travel only in access tokens; a refresh re-reads them from the account.
type Claims struct {
	jwt.RegisteredClaims

	UserID      string    `json:"user_id"`
	UserType    string    `json:"user_type,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	TokenType   TokenType `json:"token_type"`
}
