package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/medprice-api/internal/config"
	"github.com/noah-isme/medprice-api/internal/handler"
	"github.com/noah-isme/medprice-api/internal/middleware"
	"github.com/noah-isme/medprice-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ReportHandler      *handler.ReportHandler
	ReportAutoHandler  *handler.ReportAutoHandler
	AdminReportHandler *handler.AdminReportHandler
	ReportFeedHandler  *handler.ReportFeedHandler
	WeightsHandler     *handler.WeightsHandler
	DashboardHandler   *handler.DashboardHandler
	PriceHandler       *handler.PriceHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	v1 := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	v1.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	api := app.Group("/api")

	if deps.PriceHandler != nil {
		deps.PriceHandler.Register(api.Group("/public/prices"))
	}

	// Reporter endpoints; processing routes on the same prefix stay admin-only
	reports := api.Group("/reports", jwtMiddleware)
	if deps.ReportAutoHandler != nil {
		deps.ReportAutoHandler.Register(reports, middleware.RequireRole(middleware.RoleAdmin))
	}
	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(reports, middleware.RateLimit("reports:create", cfg.ReportRateLimit, time.Minute))
	}

	// Admin
	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(middleware.RoleAdmin))
	adminReports := admin.Group("/reports")
	if deps.ReportFeedHandler != nil {
		deps.ReportFeedHandler.Register(adminReports)
	}
	if deps.ReportAutoHandler != nil {
		deps.ReportAutoHandler.Register(adminReports)
	}
	if deps.AdminReportHandler != nil {
		deps.AdminReportHandler.Register(adminReports)
	}
	if deps.WeightsHandler != nil {
		deps.WeightsHandler.Register(admin.Group("/weights"))
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(admin.Group("/dashboard"))
	}
}
