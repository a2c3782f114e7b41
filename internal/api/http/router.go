package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contacts-api/internal/api/http/handlers"
	"github.com/spec-kit/contacts-api/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Prefix string
	Health *handlers.HealthHandler
	Docs   *handlers.DocsHandler
	Auth   *handlers.AuthHandler
	Users  *handlers.UsersHandler
}

// GateConfig returns the auth gate classification for routes mounted under
// prefix: everything below it is protected except login and documentation.
func GateConfig(prefix string) auth.GateConfig {
	return auth.GateConfig{
		ProtectedPrefix: prefix,
		PublicPaths: []string{
			prefix + "/auth/login",
			prefix + "/docs",
			prefix + "/openapi.json",
			"/openapi.json",
			"/health",
			"/metrics",
		},
	}
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Health)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)
	app.Get("/openapi.json", cfg.Docs.OpenAPI)

	api := app.Group(cfg.Prefix)
	api.Get("/openapi.json", cfg.Docs.OpenAPI)
	api.Get("/docs", cfg.Docs.Docs)
	api.Post("/auth/login", cfg.Auth.Login)

	users := api.Group("/users", auth.RequireActive())
	users.Get("/me", cfg.Users.Me)
	users.Get("/:id", cfg.Users.Get)
	users.Post("/", auth.RequireSuperuser(), cfg.Users.Create)
}
