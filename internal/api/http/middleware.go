package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-api/internal/auth"
	"github.com/spec-kit/contacts-api/internal/observability"
	apperrors "github.com/spec-kit/contacts-api/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares. Order matters: the request
// logger sees the final status, errors are rendered before it, and the auth
// gate runs before any route handler.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration, gate *auth.AuthMiddleware) {
	app.Use(observability.RequestLogger(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	if gate != nil {
		app.Use(gate.Handle)
	}
}

// ErrorHandler renders errors that escape the middleware chain, such as
// body limit violations raised by fiber itself.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		writeError(c, logger, apperrors.ToDomainError(err))
		return nil
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(observability.RouteKey(c), c.Method(), domainErr.Code)
				writeError(c, logger, domainErr)
				err = nil
			}
		}()
		return c.Next()
	}
}

// writeError renders {"detail": message} with the error's status and headers.
// Causes are logged for 5xx only and never sent to the client.
func writeError(c *fiber.Ctx, logger *zap.Logger, domainErr *apperrors.DomainError) {
	if domainErr.HTTPStatus >= 500 {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("code", domainErr.Code),
			zap.Error(domainErr),
		)
	}
	for k, v := range domainErr.Headers {
		c.Set(k, v)
	}
	c.Status(domainErr.HTTPStatus)
	_ = c.JSON(fiber.Map{"detail": domainErr.Message})
}
