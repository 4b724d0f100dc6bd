package routes

import (
	"github.com/gofiber/fiber/v2"

	"apms-analytics-service/internal/controller"
)

// Register attaches all HTTP routes to the Fiber app.
func Register(app *fiber.App, analyticsController controller.AnalyticsController) {
	analytics := app.Group("/v1/analytics")
	analytics.Post("/query", analyticsController.Query)
	analytics.Get("/timerlogs/heatmap/daily-counts", analyticsController.DailyCounts)
	analytics.Get("/timerlogs/pareto/stop-reasons", analyticsController.StopReasonPareto)

	app.Get("/v1/downtime/reasons", analyticsController.DowntimeReasons)
	app.Get("/v1/refs/basic", analyticsController.Refs)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
