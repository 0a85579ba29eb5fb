package server

import (
	"context"
	"log"

	"ppm-intake-be/internal/bootstrap"
	"ppm-intake-be/internal/config"
	"ppm-intake-be/internal/dto"
	"ppm-intake-be/internal/pkg/serverutils"
	"ppm-intake-be/internal/tracer"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const Version = "1.0.0"

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB
		Immutable: true,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Routes
	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

// Shutdown stops accepting requests, then closes every session so pending
// completion records are flushed.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		log.Printf("[WARN] HTTP shutdown: %v", err)
	}
	return s.container.Manager.CloseAll(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("Program Pathways Mapper intake API", dto.ServiceInfoResponse{
			Name:    tracer.ServiceName,
			Version: Version,
			Status:  "running",
		}))
	})
	app.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("healthy", dto.HealthResponse{
			Status:         "healthy",
			ActiveSessions: c.IntakeService.ActiveSessions(),
		}))
	})

	api := app.Group("/api")

	c.IntakeController.RegisterRoutes(api)
	c.ChatHandler.RegisterRoutes(api)
	c.AdminController.RegisterRoutes(api)
}
