package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/contacts-api/internal/domain"
	apperrors "github.com/spec-kit/contacts-api/pkg/util/errorutil"
)

func TestValidateUserCreateRequest(t *testing.T) {
	require.NoError(t, Validate(UserCreateRequest{Email: "new@example.com", Password: "long-enough"}))

	err := Validate(UserCreateRequest{Email: "not-an-email", Password: "short"})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	require.Equal(t, http.StatusUnprocessableEntity, de.HTTPStatus)
	require.Contains(t, de.Message, "email: must be a valid email address")
	require.Contains(t, de.Message, "password: must be at least 8 characters")
}

func TestLoginRequestIdentifier(t *testing.T) {
	require.Equal(t, "u@example.com", LoginRequest{Username: "u@example.com", Email: "e@example.com"}.Identifier())
	require.Equal(t, "e@example.com", LoginRequest{Email: "e@example.com"}.Identifier())
}

func TestNewUserResponseNeverNilRoles(t *testing.T) {
	resp := NewUserResponse(&domain.User{ID: "1", Email: "a@example.com"})
	require.NotNil(t, resp.Roles)
	require.Empty(t, resp.Roles)
}
