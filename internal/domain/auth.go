package domain

import "time"

// TokenType is the OAuth2 token type returned on login.
const TokenType = "bearer"

// AccessToken describes an issued bearer token.
type AccessToken struct {
	Token     string
	Subject   string
	ExpiresAt time.Time
}
