package server

import (
	"log"

	"captionchecker-be/internal/bootstrap"
	"captionchecker-be/internal/config"
	"captionchecker-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // data-URL image payloads
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Route-level gate: protected pages redirect to login, protected APIs 401.
	app.Use(serverutils.AccessMiddleware(container.TokenService))

	app.Static("/uploads", "./uploads")

	app.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"status": "ok"})
	})

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

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	// Public: login flows, plan listing, gateway webhook.
	c.AuthController.RegisterRoutes(api)
	c.OAuthController.RegisterRoutes(api)
	c.PlanController.RegisterPublicRoutes(api)
	c.PaymentController.RegisterPublicRoutes(api)

	// Everything else carries an authenticated session.
	protected := api.Group("", serverutils.SessionMiddleware(c.TokenService))
	c.UserController.RegisterRoutes(protected)
	c.PlanController.RegisterProtectedRoutes(protected)
	c.AnalyzeController.RegisterRoutes(protected)
	c.PaymentController.RegisterProtectedRoutes(protected)
}
