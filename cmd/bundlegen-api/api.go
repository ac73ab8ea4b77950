// Package main provides the bundlegen API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/bundlegen/pkg/services"
	"github.com/dukex/bundlegen/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger        *slog.Logger
	bundleService *services.Bundle
	validate      *validator.Validate
}

func NewAPI(logger *slog.Logger, bundleService *services.Bundle) *API {
	return &API{
		logger:        logger,
		bundleService: bundleService,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.bundleService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Bundlegen API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Get("/:id", handlers.GetWorkflow)

	b := app.Group("/bundles")
	b.Post("/generate", handlers.GenerateBundle)
	b.Post("/validate", handlers.ValidateBundle)
	b.Get("/", handlers.GetBundles)
	b.Get("/:name", handlers.GetBundle)
	b.Delete("/:name", handlers.DeleteBundle)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
