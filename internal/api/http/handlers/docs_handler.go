package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// DocsHandler serves the OpenAPI description and a viewer page.
type DocsHandler struct {
	document fiber.Map
	specURL  string
	title    string
}

// NewDocsHandler builds the OpenAPI document for routes mounted under prefix.
func NewDocsHandler(title, version, prefix string) *DocsHandler {
	return &DocsHandler{
		document: openAPIDocument(title, version, prefix),
		specURL:  prefix + "/openapi.json",
		title:    title,
	}
}

// OpenAPI handles GET /openapi.json.
func (h *DocsHandler) OpenAPI(c *fiber.Ctx) error {
	return c.JSON(h.document)
}

// Docs handles GET /docs.
func (h *DocsHandler) Docs(c *fiber.Ctx) error {
	c.Type("html")
	return c.SendString(fmt.Sprintf(docsPage, h.title, h.specURL))
}

const docsPage = `<!DOCTYPE html>
<html>
<head><title>%s</title><meta charset="utf-8"/></head>
<body>
<redoc spec-url="%s"></redoc>
<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`

func openAPIDocument(title, version, prefix string) fiber.Map {
	detail := fiber.Map{
		"type":       "object",
		"properties": fiber.Map{"detail": fiber.Map{"type": "string"}},
	}
	user := fiber.Map{
		"type": "object",
		"properties": fiber.Map{
			"id":           fiber.Map{"type": "string", "format": "uuid"},
			"email":        fiber.Map{"type": "string", "format": "email"},
			"full_name":    fiber.Map{"type": "string"},
			"is_active":    fiber.Map{"type": "boolean"},
			"is_superuser": fiber.Map{"type": "boolean"},
			"roles":        fiber.Map{"type": "array", "items": fiber.Map{"type": "string"}},
			"created_at":   fiber.Map{"type": "string", "format": "date-time"},
			"updated_at":   fiber.Map{"type": "string", "format": "date-time"},
		},
	}
	jsonBody := func(schema fiber.Map) fiber.Map {
		return fiber.Map{"content": fiber.Map{"application/json": fiber.Map{"schema": schema}}}
	}
	response := func(description string, schema fiber.Map) fiber.Map {
		out := jsonBody(schema)
		out["description"] = description
		return out
	}
	secured := []fiber.Map{{"bearerAuth": []string{}}}

	return fiber.Map{
		"openapi": "3.0.3",
		"info":    fiber.Map{"title": title, "version": version},
		"components": fiber.Map{
			"securitySchemes": fiber.Map{
				"bearerAuth": fiber.Map{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
		},
		"paths": fiber.Map{
			prefix + "/auth/login": fiber.Map{
				"post": fiber.Map{
					"summary": "Exchange credentials for an access token",
					"requestBody": fiber.Map{"content": fiber.Map{
						"application/x-www-form-urlencoded": fiber.Map{"schema": fiber.Map{
							"type":       "object",
							"required":   []string{"username", "password"},
							"properties": fiber.Map{"username": fiber.Map{"type": "string"}, "password": fiber.Map{"type": "string"}},
						}},
						"application/json": fiber.Map{"schema": fiber.Map{
							"type":       "object",
							"properties": fiber.Map{"email": fiber.Map{"type": "string"}, "username": fiber.Map{"type": "string"}, "password": fiber.Map{"type": "string"}},
						}},
					}},
					"responses": fiber.Map{
						"200": response("Access token", fiber.Map{
							"type":       "object",
							"properties": fiber.Map{"access_token": fiber.Map{"type": "string"}, "token_type": fiber.Map{"type": "string"}},
						}),
						"401": response("Incorrect email or password", detail),
					},
				},
			},
			prefix + "/users/me": fiber.Map{
				"get": fiber.Map{
					"summary":   "Current user",
					"security":  secured,
					"responses": fiber.Map{"200": response("Current user", user), "401": response("Not authenticated", detail)},
				},
			},
			prefix + "/users/{id}": fiber.Map{
				"get": fiber.Map{
					"summary":    "User by id",
					"security":   secured,
					"parameters": []fiber.Map{{"name": "id", "in": "path", "required": true, "schema": fiber.Map{"type": "string"}}},
					"responses":  fiber.Map{"200": response("User", user), "404": response("User not found", detail)},
				},
			},
			prefix + "/users": fiber.Map{
				"post": fiber.Map{
					"summary":  "Create user (superuser only)",
					"security": secured,
					"requestBody": jsonBody(fiber.Map{
						"type":     "object",
						"required": []string{"email", "password"},
						"properties": fiber.Map{
							"email":        fiber.Map{"type": "string", "format": "email"},
							"password":     fiber.Map{"type": "string", "minLength": 8},
							"full_name":    fiber.Map{"type": "string"},
							"is_superuser": fiber.Map{"type": "boolean"},
						},
					}),
					"responses": fiber.Map{
						"201": response("Created", user),
						"403": response("Not enough privileges", detail),
						"409": response("Email already registered", detail),
						"422": response("Invalid body", detail),
					},
				},
			},
		},
	}
}
