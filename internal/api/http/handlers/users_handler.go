package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contacts-api/internal/api/dto"
	"github.com/spec-kit/contacts-api/internal/auth"
	"github.com/spec-kit/contacts-api/internal/domain"
	"github.com/spec-kit/contacts-api/internal/service"
	apperrors "github.com/spec-kit/contacts-api/pkg/util/errorutil"
)

// UsersHandler exposes account endpoints behind the auth gate.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return auth.HTTPError(auth.ErrMissingCredentials)
	}
	return c.JSON(dto.NewUserResponse(principal.User))
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.auth.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperrors.NewNotFound("User")
		}
		return apperrors.NewServiceUnavailable(err)
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Create handles POST /users. Callers must be superusers.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.UserCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	user, err := h.auth.RegisterUser(c.UserContext(), service.NewUser{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		IsSuperuser: req.IsSuperuser,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return apperrors.NewConflict("The user with this email already exists in the system")
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewUserResponse(user))
}
