package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contacts-api/internal/api/dto"
	"github.com/spec-kit/contacts-api/internal/auth"
	"github.com/spec-kit/contacts-api/internal/service"
)

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login. Unparseable bodies and missing fields are
// answered like wrong credentials.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return auth.HTTPError(auth.ErrInvalidCredentials)
	}
	identifier := req.Identifier()
	if identifier == "" || req.Password == "" {
		return auth.HTTPError(auth.ErrInvalidCredentials)
	}

	token, err := h.auth.Login(c.UserContext(), identifier, req.Password, c.IP())
	if err != nil {
		return auth.HTTPError(err)
	}
	return c.JSON(dto.NewTokenResponse(token))
}
