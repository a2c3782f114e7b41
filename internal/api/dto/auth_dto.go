package dto

import "github.com/spec-kit/contacts-api/internal/domain"

// LoginRequest accepts the OAuth2 password form (username, password) as well
// as JSON bodies using either email or username.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Identifier returns the login identifier, preferring username.
func (r LoginRequest) Identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// NewTokenResponse maps an issued token.
func NewTokenResponse(t *domain.AccessToken) TokenResponse {
	return TokenResponse{AccessToken: t.Token, TokenType: domain.TokenType}
}
