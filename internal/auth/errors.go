package auth

import (
	"errors"

	apperrors "github.com/spec-kit/contacts-api/pkg/util/errorutil"
)

// Failure taxonomy. Callers match with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMalformedToken     = errors.New("malformed token")
	ErrExpiredToken       = errors.New("expired token")
	ErrUnknownSubject     = errors.New("unknown subject")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrLookupUnavailable  = errors.New("credential lookup unavailable")
)

// Client-facing messages.
const (
	MsgNotAuthenticated   = "No autenticado"
	MsgCouldNotValidate   = "Could not validate credentials"
	MsgInvalidCredentials = "Incorrect email or password"
)

// FailureKind returns a stable label for logs and metrics.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, ErrUnknownSubject):
		return "unknown_subject"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrLookupUnavailable):
		return "lookup_unavailable"
	default:
		return "internal"
	}
}

// HTTPError maps a taxonomy error to the response the client sees. Token
// lifecycle detail is collapsed into a single message.
func HTTPError(err error) error {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return apperrors.NewUnauthorized(MsgNotAuthenticated, err)
	case errors.Is(err, ErrMalformedToken),
		errors.Is(err, ErrExpiredToken),
		errors.Is(err, ErrUnknownSubject):
		return apperrors.NewUnauthorized(MsgCouldNotValidate, err)
	case errors.Is(err, ErrInvalidCredentials):
		return apperrors.NewUnauthorized(MsgInvalidCredentials, err)
	case errors.Is(err, ErrLookupUnavailable):
		return apperrors.NewServiceUnavailable(err)
	default:
		return apperrors.NewInternalError(err)
	}
}
