package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-api/internal/domain"
)

const bearerScheme = "bearer"

// TokenVerifier validates a raw bearer token.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// SubjectResolver loads the principal a token subject points at.
// Implementations return domain.ErrNotFound when it no longer exists.
type SubjectResolver interface {
	FindBySubject(ctx context.Context, subject string) (*domain.User, error)
}

// FailureRecorder counts rejected requests by failure kind.
type FailureRecorder interface {
	RecordAuthFailure(kind string)
}

// GateConfig classifies routes. Paths under ProtectedPrefix require a bearer
// token unless they start with one of PublicPaths. Matching ignores case, like
// the default fiber router.
type GateConfig struct {
	ProtectedPrefix string
	PublicPaths     []string
}

// AuthMiddleware validates bearer tokens and loads principals before any
// protected handler runs.
type AuthMiddleware struct {
	tokens   TokenVerifier
	users    SubjectResolver
	cfg      GateConfig
	logger   *zap.Logger
	recorder FailureRecorder
}

// NewAuthMiddleware constructs middleware. recorder may be nil.
func NewAuthMiddleware(tokens TokenVerifier, users SubjectResolver, cfg GateConfig, logger *zap.Logger, recorder FailureRecorder) *AuthMiddleware {
	cfg.ProtectedPrefix = strings.ToLower(strings.TrimRight(cfg.ProtectedPrefix, "/"))
	public := make([]string, 0, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		public = append(public, strings.ToLower(p))
	}
	cfg.PublicPaths = public
	return &AuthMiddleware{tokens: tokens, users: users, cfg: cfg, logger: logger, recorder: recorder}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	path := c.Path()
	if !m.Protects(path) {
		return c.Next()
	}

	principal, err := m.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		m.logRejection(c, err)
		return HTTPError(err)
	}

	c.Locals(principalKey, principal)
	c.SetUserContext(WithPrincipal(c.UserContext(), principal))
	return c.Next()
}

// Protects reports whether path goes through the gate.
func (m *AuthMiddleware) Protects(path string) bool {
	path = strings.ToLower(path)
	for _, public := range m.cfg.PublicPaths {
		if strings.HasPrefix(path, public) {
			return false
		}
	}
	return path == m.cfg.ProtectedPrefix || strings.HasPrefix(path, m.cfg.ProtectedPrefix+"/")
}

// Authenticate resolves the Authorization header value to a principal.
func (m *AuthMiddleware) Authenticate(ctx context.Context, header string) (*Principal, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return nil, err
	}

	claims, err := m.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	user, err := m.users.FindBySubject(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, fmt.Errorf("%w: %w", ErrLookupUnavailable, err)
	}
	return &Principal{Subject: claims.Subject, User: user, Claims: claims}, nil
}

// BearerToken extracts the token from an Authorization header value. Any
// header that is absent, blank, not the bearer scheme or has no token yields
// ErrMissingCredentials.
func BearerToken(header string) (string, error) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], bearerScheme) {
		return "", ErrMissingCredentials
	}
	return fields[1], nil
}

func (m *AuthMiddleware) logRejection(c *fiber.Ctx, err error) {
	kind := FailureKind(err)
	if m.recorder != nil {
		m.recorder.RecordAuthFailure(kind)
	}
	fields := []zap.Field{
		zap.String("reason", kind),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("ip", c.IP()),
	}
	if errors.Is(err, ErrLookupUnavailable) {
		m.logger.Error("principal lookup failed", append(fields, zap.Error(err))...)
		return
	}
	m.logger.Info("request rejected", fields...)
}
